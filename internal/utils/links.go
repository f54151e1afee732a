// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package utils holds text helpers used when building notifications.
package utils

import (
	"net/url"
	"regexp"
	"strings"
)

// linkPattern matches http and https URLs up to whitespace, quotes or angle brackets.
var linkPattern = regexp.MustCompile(`https?://[^\s<>"]+`)

// trailingPunctuation is stripped from matched links since free text often
// ends a URL with sentence punctuation or a closing bracket.
const trailingPunctuation = ".,!?;:)]}'"

// Link is a URL found in appointment text.
type Link struct {
	URL  string
	Host string
}

// ExtractLinks returns the distinct links found across texts, in the order
// they first appear. Links that do not parse as absolute URLs are dropped.
func ExtractLinks(texts ...string) []Link {
	var links []Link
	seen := make(map[string]struct{})

	for _, text := range texts {
		for _, match := range linkPattern.FindAllString(text, -1) {
			raw := strings.TrimRight(match, trailingPunctuation)
			if _, ok := seen[raw]; ok {
				continue
			}

			parsed, err := url.Parse(raw)
			if err != nil || parsed.Hostname() == "" {
				continue
			}

			seen[raw] = struct{}{}
			links = append(links, Link{URL: raw, Host: parsed.Hostname()})
		}
	}

	return links
}
