// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

package feed

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const embeddedJSONDoc = `<html><head>
<script>
{"events":[
  {"disease":"Cholera","country":"Yemen","cases":"1,200","deaths":40},
  {"disease":"Measles","location":"Kabul","cases":12},
  {"title":"not an event","country":"France"}
]}
</script>
<script>var analytics = true;</script>
</head><body>
<h2><a href="/event/999">Dengue, Brazil</a></h2>
</body></html>`

const anchorDoc = `<html><body>
<div class="card">
  <h2><a href="/event/abc-123">Cholera, Yemen</a></h2>
  <p>Rising case counts in Aden governorate.</p>
</div>
<div class="card">
  <h2><a href="/event/def-456">Untitled link without comma</a></h2>
</div>
<a href="/news/unrelated">Dengue, Brazil</a>
</body></html>`

const cardDoc = `<html><body>
<article>
  <h3>Marburg virus disease</h3>
  <span class="country">Equatorial Guinea</span>
  <p>Cluster under investigation.</p>
  <span class="cases">Total: 1,300 cases</span>
  <span class="deaths">9 deaths</span>
  <a href="/event/mvd-1">Details</a>
</article>
<article>
  <h3>Headline without a country</h3>
</article>
</body></html>`

func TestParseEmbeddedJSON(t *testing.T) {
	candidates := NewParser().Parse(embeddedJSONDoc)
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, expected 2: %v", len(candidates), candidates)
	}

	byDisease := map[string]RawCandidate{}
	for _, c := range candidates {
		byDisease[c.Text("disease")] = c
	}
	if _, ok := byDisease["Cholera"]; !ok {
		t.Error("expected a Cholera candidate")
	}
	if _, ok := byDisease["Measles"]; !ok {
		t.Error("expected a Measles candidate (location counts as a place key)")
	}
	if c := byDisease["Cholera"]; c.Text("cases") != "1,200" {
		t.Errorf("cases = %q, expected the raw text to survive extraction", c.Text("cases"))
	}
}

type recordingStrategy struct {
	invoked bool
}

func (r *recordingStrategy) Name() string { return "recording" }

func (r *recordingStrategy) Extract(_ *goquery.Document) []RawCandidate {
	r.invoked = true
	return nil
}

func TestParseShortCircuitsAfterFirstMatch(t *testing.T) {
	recorder := &recordingStrategy{}
	p := &Parser{strategies: []Strategy{embeddedJSONStrategy{}, recorder}}

	candidates := p.Parse(embeddedJSONDoc)
	if len(candidates) == 0 {
		t.Fatal("embedded strategy should have matched")
	}
	if recorder.invoked {
		t.Error("lower-priority strategy must not run once a higher one matched")
	}
}

func TestParseAnchorTitleFallback(t *testing.T) {
	candidates := NewParser().Parse(anchorDoc)
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, expected 1: %v", len(candidates), candidates)
	}

	c := candidates[0]
	if c.Text("disease") != "Cholera" || c.Text("country") != "Yemen" {
		t.Errorf("unexpected candidate: %v", c)
	}
	if c.Text("source_url") != "/event/abc-123" {
		t.Errorf("source_url = %q", c.Text("source_url"))
	}
	if c.Text("description") != "Rising case counts in Aden governorate." {
		t.Errorf("description = %q", c.Text("description"))
	}
}

func TestParseGenericCardFallback(t *testing.T) {
	candidates := NewParser().Parse(cardDoc)
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, expected 1: %v", len(candidates), candidates)
	}

	c := candidates[0]
	if c.Text("disease") != "Marburg virus disease" {
		t.Errorf("disease = %q", c.Text("disease"))
	}
	if c.Text("country") != "Equatorial Guinea" {
		t.Errorf("country = %q", c.Text("country"))
	}
	if got, _ := c.Field("cases"); got != 1300 {
		t.Errorf("cases = %v, expected 1300 (thousands separator stripped)", got)
	}
	if got, _ := c.Field("deaths"); got != 9 {
		t.Errorf("deaths = %v, expected 9", got)
	}
	if c.Text("source_url") != "/event/mvd-1" {
		t.Errorf("source_url = %q", c.Text("source_url"))
	}
}

func TestParseDegenerateDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t  "},
		{"no events", "<html><body><h1>Maintenance</h1></body></html>"},
		{"broken json script", `<html><script>{"unterminated": </script></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewParser().Parse(tt.doc); len(got) != 0 {
				t.Errorf("got %d candidates, expected none", len(got))
			}
		})
	}
}

func TestCandidateFieldAccess(t *testing.T) {
	c := RawCandidate{"Disease": "Cholera", "COUNTRY": "Yemen", "cases": float64(1200)}

	if c.Text("disease") != "Cholera" {
		t.Errorf("field lookup should be case-insensitive, got %q", c.Text("disease"))
	}
	if c.Text("country") != "Yemen" {
		t.Errorf("country = %q", c.Text("country"))
	}
	if c.Text("cases") != "1200" {
		t.Errorf("whole JSON numbers should render without a fraction, got %q", c.Text("cases"))
	}
	if c.Text("missing") != "" {
		t.Error("absent fields should render as empty string")
	}
	if c.FirstText("beacon_event_id", "cases") != "1200" {
		t.Errorf("FirstText should skip absent fields")
	}
}
