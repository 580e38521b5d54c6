// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

// Package redact strips personally identifying information from ingested
// feed data before it is persisted.
//
// Two transforms are applied:
//   - keys whose lowercase form contains a sensitive term are dropped from
//     nested maps entirely
//   - email-like and phone-like substrings in string values are replaced
//     with fixed placeholder tokens
//
// Both transforms are pure; input values are never mutated.
package redact

import (
	"regexp"
	"strings"
)

// Placeholder tokens substituted for matched PII substrings.
const (
	EmailPlaceholder = "[REDACTED_EMAIL]"
	PhonePlaceholder = "[REDACTED_PHONE]"
)

var (
	emailRe = regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`)
	phoneRe = regexp.MustCompile(`\b(?:\+?\d[\d\s().-]{6,}\d)\b`)

	// dropTerms are substrings that mark a key as sensitive. Matching is
	// case-insensitive and substring-based, so "patient_name" and
	// "reporterEmail" are both dropped.
	dropTerms = []string{"name", "email", "phone", "mobile", "contact", "address", "patient", "reporter"}
)

// Text replaces email-like and phone-like substrings with placeholders.
func Text(s string) string {
	if s == "" {
		return s
	}
	s = emailRe.ReplaceAllString(s, EmailPlaceholder)
	s = phoneRe.ReplaceAllString(s, PhonePlaceholder)
	return s
}

// SensitiveKey reports whether a map key should be dropped outright.
func SensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, term := range dropTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// Sanitize returns a deep copy of v with sensitive keys removed and string
// leaves passed through Text. Maps, slices and scalars are handled; any other
// type is carried over unchanged.
func Sanitize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		cleaned := make(map[string]any, len(val))
		for key, item := range val {
			if SensitiveKey(key) {
				continue
			}
			cleaned[key] = Sanitize(item)
		}
		return cleaned
	case []any:
		cleaned := make([]any, 0, len(val))
		for _, item := range val {
			cleaned = append(cleaned, Sanitize(item))
		}
		return cleaned
	case string:
		return Text(val)
	default:
		return v
	}
}
