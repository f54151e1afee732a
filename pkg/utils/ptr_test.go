// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPtr(t *testing.T) {
	b := Ptr(false)
	if assert.NotNil(t, b) {
		assert.False(t, *b)
	}

	n := 5
	p := Ptr(n)
	n = 6
	assert.Equal(t, 5, *p, "pointer must not alias the argument")

	ts := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, ts, *Ptr(ts))
}

func TestValueOr(t *testing.T) {
	tests := []struct {
		name     string
		p        *int
		fallback int
		want     int
	}{
		{name: "nil uses fallback", p: nil, fallback: 5, want: 5},
		{name: "zero value is kept", p: Ptr(0), fallback: 5, want: 0},
		{name: "value is kept", p: Ptr(15), fallback: 5, want: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValueOr(tt.p, tt.fallback))
		})
	}

	assert.True(t, ValueOr[bool](nil, true))
	assert.False(t, ValueOr(Ptr(false), true))
}
