// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

// Package feed fetches the remote event feed and extracts raw outbreak
// candidates from it through an ordered cascade of parsing strategies.
package feed

import (
	"fmt"
	"strings"
)

// RawCandidate is one untyped event candidate extracted from the feed. Its
// shape varies by strategy; fields a strategy could not populate are simply
// absent and downstream normalization supplies defaults.
type RawCandidate map[string]any

// Field returns the value for the first key matching name case-insensitively.
// Exact matches win over case-folded ones.
func (c RawCandidate) Field(name string) (any, bool) {
	if v, ok := c[name]; ok {
		return v, true
	}
	for k, v := range c {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

// Text returns the field value rendered as a string, or "" when the field is
// absent or nil. Numeric values keep their literal form ("1200", "3.5").
func (c RawCandidate) Text(name string) string {
	v, ok := c.Field(name)
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		// JSON numbers decode as float64; render integers without a fraction.
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%v", s)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FirstText returns the first non-empty value among the named fields.
func (c RawCandidate) FirstText(names ...string) string {
	for _, name := range names {
		if s := c.Text(name); s != "" {
			return s
		}
	}
	return ""
}
