// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalesce(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{name: "no values", values: nil, want: ""},
		{name: "all empty", values: []string{"", ""}, want: ""},
		{name: "first set", values: []string{"https://a.example.com", "https://b.example.com"}, want: "https://a.example.com"},
		{name: "skips empty", values: []string{"", "UTC"}, want: "UTC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Coalesce(tt.values...))
		})
	}

	assert.Equal(t, 5, Coalesce(0, 5, 7))
}
