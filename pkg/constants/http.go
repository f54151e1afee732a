// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import "strings"

// Constants for the HTTP request headers
const (
	// RequestIDHeader is the header name for the request ID
	RequestIDHeader string = "X-REQUEST-ID"

	// ContentTypeHeader is the header name for the content type
	ContentTypeHeader string = "Content-Type"
)

// contextRequestID is the type for the request ID context key
type contextRequestID string

// RequestIDContextID is the context ID for the request ID
const RequestIDContextID contextRequestID = "X-REQUEST-ID"

// audioFormatsByContentType maps the audio MIME types browsers and recorders
// send to the short format names the recording service accepts.
var audioFormatsByContentType = map[string]string{
	"audio/wav":    "wav",
	"audio/wave":   "wav",
	"audio/x-wav":  "wav",
	"audio/mpeg":   "mp3",
	"audio/mp3":    "mp3",
	"audio/ogg":    "ogg",
	"audio/webm":   "webm",
	"video/webm":   "webm",
	"audio/mp4":    "m4a",
	"audio/x-m4a":  "m4a",
	"audio/flac":   "flac",
	"audio/x-flac": "flac",
}

// AudioFormatFromContentType returns the audio format named by a Content-Type
// header value, ignoring parameters such as codecs. It returns an empty string
// for unknown types.
func AudioFormatFromContentType(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return audioFormatsByContentType[strings.ToLower(strings.TrimSpace(mediaType))]
}
