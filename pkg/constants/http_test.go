// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import (
	"testing"
)

func TestHTTPHeaderConstants(t *testing.T) {
	tests := []struct {
		name     string
		constant string
		expected string
	}{
		{
			name:     "RequestIDHeader",
			constant: RequestIDHeader,
			expected: "X-REQUEST-ID",
		},
		{
			name:     "ContentTypeHeader",
			constant: ContentTypeHeader,
			expected: "Content-Type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.constant != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.constant)
			}
		})
	}
}

func TestContextMappingConsistency(t *testing.T) {
	if string(RequestIDContextID) != RequestIDHeader {
		t.Errorf("RequestIDContextID (%q) should match RequestIDHeader (%q)", RequestIDContextID, RequestIDHeader)
	}
}

func TestAudioFormatFromContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		expected    string
	}{
		{name: "wav", contentType: "audio/wav", expected: "wav"},
		{name: "legacy wav", contentType: "audio/x-wav", expected: "wav"},
		{name: "mpeg", contentType: "audio/mpeg", expected: "mp3"},
		{name: "webm with codecs", contentType: "audio/webm;codecs=opus", expected: "webm"},
		{name: "upper case with spaces", contentType: " Audio/OGG ", expected: "ogg"},
		{name: "m4a", contentType: "audio/mp4", expected: "m4a"},
		{name: "flac", contentType: "audio/flac", expected: "flac"},
		{name: "unknown", contentType: "application/octet-stream", expected: ""},
		{name: "empty", contentType: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AudioFormatFromContentType(tt.contentType); got != tt.expected {
				t.Errorf("AudioFormatFromContentType(%q) = %q, expected %q", tt.contentType, got, tt.expected)
			}
		})
	}
}
