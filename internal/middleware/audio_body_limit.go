// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"strings"
)

// audioUploadSuffixes are the path suffixes of the endpoints that accept raw audio.
var audioUploadSuffixes = []string{"/recordings", "/stop"}

// AudioBodyLimitMiddleware caps the request body of audio upload endpoints at
// maxBytes so oversized uploads fail while reading instead of being buffered.
// The limit leaves one extra byte so the recording service can tell an upload
// of exactly maxBytes from a larger one.
func AudioBodyLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost && isAudioUpload(r.URL.Path) {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1)
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isAudioUpload(path string) bool {
	for _, suffix := range audioUploadSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
