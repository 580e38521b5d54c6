// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

package feed

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"

	"github.com/ghiwatch/beaconwatch/internal/logging"
	"github.com/ghiwatch/beaconwatch/internal/metrics"
)

// Strategy extracts raw candidates from a parsed feed document. Strategies
// run in a fixed priority order; a lower-priority strategy is attempted only
// when every higher-priority one yielded zero candidates.
type Strategy interface {
	// Name identifies the strategy in logs and metrics.
	Name() string

	// Extract returns all candidates the strategy can find in the document.
	Extract(doc *goquery.Document) []RawCandidate
}

// Parser runs the strategy cascade over a fetched document.
type Parser struct {
	strategies []Strategy
}

// NewParser creates a parser with the default strategy order: embedded JSON
// blobs, then event-link anchors, then generic card markup.
func NewParser() *Parser {
	return &Parser{
		strategies: []Strategy{
			embeddedJSONStrategy{},
			anchorTitleStrategy{},
			genericCardStrategy{},
		},
	}
}

// Parse returns the candidates of the first strategy that produced any.
// An empty or unparseable document yields no candidates.
func (p *Parser) Parse(document string) []RawCandidate {
	if strings.TrimSpace(document) == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to parse feed document")
		return nil
	}

	for _, strategy := range p.strategies {
		candidates := strategy.Extract(doc)
		metrics.ParseCandidates.WithLabelValues(strategy.Name()).Add(float64(len(candidates)))
		if len(candidates) > 0 {
			logging.Debug().Str("strategy", strategy.Name()).Int("candidates", len(candidates)).Msg("Parser strategy matched")
			return candidates
		}
	}
	return nil
}

// embeddedJSONStrategy decodes inline <script> blocks that hold JSON and
// walks the resulting trees exhaustively. Any object whose key set contains
// "disease" and either "country" or "location" (case-insensitive) is a
// candidate.
type embeddedJSONStrategy struct{}

func (embeddedJSONStrategy) Name() string { return "embedded-json" }

func (embeddedJSONStrategy) Extract(doc *goquery.Document) []RawCandidate {
	var candidates []RawCandidate
	doc.Find("script").Each(func(_ int, script *goquery.Selection) {
		text := strings.TrimSpace(script.Text())
		if text == "" || (text[0] != '{' && text[0] != '[') {
			return
		}
		var tree any
		if err := json.Unmarshal([]byte(text), &tree); err != nil {
			return
		}
		walkTree(tree, &candidates)
	})
	return candidates
}

// walkTree visits every nested object and array in the decoded tree,
// collecting event-shaped objects along the way.
func walkTree(node any, out *[]RawCandidate) {
	switch v := node.(type) {
	case map[string]any:
		if looksLikeEvent(v) {
			*out = append(*out, RawCandidate(v))
		}
		for _, child := range v {
			walkTree(child, out)
		}
	case []any:
		for _, item := range v {
			walkTree(item, out)
		}
	}
}

func looksLikeEvent(obj map[string]any) bool {
	var hasDisease, hasPlace bool
	for key := range obj {
		switch strings.ToLower(key) {
		case "disease":
			hasDisease = true
		case "country", "location":
			hasPlace = true
		}
	}
	return hasDisease && hasPlace
}

// anchorTitleStrategy targets event-detail links whose text is formatted
// "Disease, Country". The link sits inside a heading; the description is the
// first paragraph of the heading's parent container.
type anchorTitleStrategy struct{}

func (anchorTitleStrategy) Name() string { return "anchor-title" }

func (anchorTitleStrategy) Extract(doc *goquery.Document) []RawCandidate {
	var candidates []RawCandidate
	doc.Find(`a[href*="/event/"]`).Each(func(_ int, link *goquery.Selection) {
		title := strings.TrimSpace(link.Text())
		diseasePart, countryPart, found := strings.Cut(title, ",")
		if !found {
			return
		}
		disease := strings.TrimSpace(diseasePart)
		country := strings.TrimSpace(countryPart)
		if disease == "" || country == "" {
			return
		}

		heading := link.Closest("h2")
		if heading.Length() == 0 {
			return
		}

		candidate := RawCandidate{
			"disease": disease,
			"country": country,
		}
		if href, ok := link.Attr("href"); ok && href != "" {
			candidate["source_url"] = href
		}
		if description := strings.TrimSpace(heading.Parent().Find("p").First().Text()); description != "" {
			candidate["description"] = description
		}
		candidates = append(candidates, candidate)
	})
	return candidates
}

// genericCardStrategy is the last-resort fallback over card-like markup.
// Per-field selector lists are tried in order; the first non-empty match
// wins.
type genericCardStrategy struct{}

func (genericCardStrategy) Name() string { return "generic-card" }

const cardSelector = "[data-event-id], [data-event], .event-card, .event, .event-item, article"

var (
	diseaseSelectors     = []string{"[data-disease]", ".disease", "h3", "h2", "h4"}
	countrySelectors     = []string{"[data-country]", ".country", ".location", ".geo"}
	descriptionSelectors = []string{".description", ".desc", "p"}
	casesSelectors       = []string{"[data-cases]", ".cases", ".case-count"}
	deathsSelectors      = []string{"[data-deaths]", ".deaths", ".death-count"}
)

func (genericCardStrategy) Extract(doc *goquery.Document) []RawCandidate {
	var candidates []RawCandidate
	doc.Find(cardSelector).Each(func(_ int, card *goquery.Selection) {
		disease := firstText(card, diseaseSelectors)
		country := firstText(card, countrySelectors)
		if disease == "" || country == "" {
			return
		}

		candidate := RawCandidate{
			"disease": disease,
			"country": country,
			"cases":   firstNumber(card, casesSelectors),
			"deaths":  firstNumber(card, deathsSelectors),
		}
		if description := firstText(card, descriptionSelectors); description != "" {
			candidate["description"] = description
		}
		if href, ok := card.Find("a[href]").First().Attr("href"); ok && href != "" {
			candidate["source_url"] = href
		}
		candidates = append(candidates, candidate)
	})
	return candidates
}

// firstText returns the trimmed text of the first selector with a non-empty
// match inside the node.
func firstText(node *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		if text := strings.TrimSpace(node.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

var digitRunRe = regexp.MustCompile(`\d+`)

// firstNumber extracts the first digit run from the first matching selector,
// tolerating thousands separators. Absent or non-numeric text yields 0.
func firstNumber(node *goquery.Selection, selectors []string) int {
	text := firstText(node, selectors)
	if text == "" {
		return 0
	}
	match := digitRunRe.FindString(strings.ReplaceAll(text, ",", ""))
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}
