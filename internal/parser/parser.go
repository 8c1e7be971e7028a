// Package parser extracts searchable text, titles, links and tags from
// stored snapshot documents.
package parser

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"
)

var (
	tagRe    = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
	markupRe = regexp.MustCompile(`<[^>]*>`)
	hrefRe   = regexp.MustCompile(`href="([^"]+)"`)
)

// linkFields hold URLs rather than prose.
var linkFields = map[string]bool{"source": true, "url": true, "embed": true, "link": true}

// skipFields are presentational and never indexed.
var skipFields = map[string]bool{"style": true, "alignment": true, "service": true, "level": true, "width": true, "height": true}

// Result holds the output of parsing a snapshot document.
type Result struct {
	Title  string
	Body   string
	Types  []string
	Links  []string
	Tags   []string
	Blocks int
}

type document struct {
	Blocks []struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	} `json:"blocks"`
}

// Parse extracts text and metadata from raw snapshot JSON.
func Parse(data []byte) (*Result, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parser: decode snapshot: %w", err)
	}

	r := &Result{Blocks: len(doc.Blocks)}
	types := map[string]struct{}{}
	links := newSet()
	var lines []string

	for _, b := range doc.Blocks {
		types[b.Type] = struct{}{}
		var v any
		if len(b.Data) > 0 {
			if err := json.Unmarshal(b.Data, &v); err != nil {
				return nil, fmt.Errorf("parser: decode %s block: %w", b.Type, err)
			}
		}
		var texts []string
		walk(v, "", func(key, s string) {
			if linkFields[key] {
				links.add(s)
				return
			}
			for _, m := range hrefRe.FindAllStringSubmatch(s, -1) {
				links.add(html.UnescapeString(m[1]))
			}
			if t := plain(s); t != "" {
				texts = append(texts, t)
			}
		})
		if r.Title == "" && b.Type == "header" && len(texts) > 0 {
			r.Title = texts[0]
		}
		lines = append(lines, texts...)
	}

	if r.Title == "" && len(lines) > 0 {
		r.Title = lines[0]
	}
	r.Body = strings.Join(lines, "\n")
	for t := range types {
		r.Types = append(r.Types, t)
	}
	sort.Strings(r.Types)
	r.Links = links.items
	r.Tags = extractTags(r.Body)
	return r, nil
}

// walk calls fn for every string leaf under v, with the nearest object key.
func walk(v any, key string, fn func(key, s string)) {
	if skipFields[key] {
		return
	}
	switch x := v.(type) {
	case string:
		fn(key, x)
	case []any:
		for _, item := range x {
			walk(item, key, fn)
		}
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(x[k], k, fn)
		}
	}
}

// plain strips inline markup and entities.
func plain(s string) string {
	s = markupRe.ReplaceAllString(s, "")
	return strings.TrimSpace(html.UnescapeString(s))
}

// extractTags returns deduplicated #tags in order of first appearance.
func extractTags(body string) []string {
	tags := newSet()
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		tags.add(m[1])
	}
	return tags.items
}

type set struct {
	seen  map[string]struct{}
	items []string
}

func newSet() *set { return &set{seen: map[string]struct{}{}} }

func (s *set) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}
