// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package payload

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"designforge/internal/ai"
)

func TestNormalizeScalarColorsAndCodeKey(t *testing.T) {
	raw := json.RawMessage(`{"title":"X","description":"y","code":"<div>hi</div>","colors":"#ff00aa"}`)

	p, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if p.Title != "X" || p.Description != "y" {
		t.Errorf("title/description: got %q/%q", p.Title, p.Description)
	}
	if !slices.Equal(p.Colors, []string{"#ff00aa"}) {
		t.Errorf("colors: got %v, want [#ff00aa]", p.Colors)
	}
	for _, want := range []string{"<!DOCTYPE html>", "cdn.tailwindcss.com", "family=Inter", `id="capture-box"`, "<div>hi</div>"} {
		if !strings.Contains(p.HTML, want) {
			t.Errorf("wrapped HTML missing %q", want)
		}
	}
	if p.Features == nil || len(p.Features) != 0 {
		t.Errorf("features: got %#v, want empty list", p.Features)
	}
	if p.Usage != "" || p.ReactCode != "" {
		t.Errorf("usage/react defaults: got %q/%q", p.Usage, p.ReactCode)
	}
}

func TestNormalizeFencedReplyMatchesPlain(t *testing.T) {
	plain := `{"title":"X","description":"y","code":"<div>hi</div>","colors":"#ff00aa"}`
	fenced := "```json\n" + plain + "\n```"

	obj, err := ai.ParseObject(fenced)
	if err != nil {
		t.Fatalf("ParseObject: %v", err)
	}
	a, err := Normalize(json.RawMessage(plain))
	if err != nil {
		t.Fatalf("Normalize plain: %v", err)
	}
	b, err := Normalize(obj)
	if err != nil {
		t.Fatalf("Normalize fenced: %v", err)
	}

	if a.Title != b.Title || a.HTML != b.HTML || !slices.Equal(a.Colors, b.Colors) {
		t.Errorf("fenced and plain replies differ:\n%+v\n%+v", a, b)
	}
}

func TestNormalizeMissingRequired(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no title", `{"description":"d","html_code":"<p/>","colors":[]}`},
		{"no description", `{"title":"t","html_code":"<p/>","colors":[]}`},
		{"no html", `{"title":"t","description":"d","colors":[]}`},
		{"no colors", `{"title":"t","description":"d","html_code":"<p/>"}`},
		{"blank html", `{"title":"t","description":"d","html_code":"   ","colors":[]}`},
		{"html not a string", `{"title":"t","description":"d","html_code":42,"colors":[]}`},
		{"description not a string", `{"title":"t","description":["d"],"html_code":"<p/>","colors":[]}`},
		{"not an object", `["title"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(json.RawMessage(tt.raw))
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestNormalizeDefaultsAndCoercions(t *testing.T) {
	raw := json.RawMessage(`{
		"title": "   ",
		"description": "  A card grid.  ",
		"features": ["Responsive", 3, "", "Dark mode"],
		"usage": 12,
		"html_code": "` + "```html\\n<section>grid</section>\\n```" + `",
		"code": "<p>ignored</p>",
		"react_code": null,
		"colors": ["#111111", 7, "#222222"]
	}`)

	p, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if p.Title != DefaultTitle {
		t.Errorf("title: got %q, want %q", p.Title, DefaultTitle)
	}
	if p.Description != "A card grid." {
		t.Errorf("description: got %q", p.Description)
	}
	if !slices.Equal(p.Features, []string{"Responsive", "Dark mode"}) {
		t.Errorf("features: got %v", p.Features)
	}
	if p.Usage != "" || p.ReactCode != "" {
		t.Errorf("usage/react: got %q/%q", p.Usage, p.ReactCode)
	}
	if strings.Contains(p.HTML, "```") || !strings.Contains(p.HTML, "<section>grid</section>") {
		t.Errorf("fences not stripped: %s", p.HTML)
	}
	if strings.Contains(p.HTML, "ignored") {
		t.Error("html_code must win over code")
	}
	if !slices.Equal(p.Colors, []string{"#111111", "#222222"}) {
		t.Errorf("colors: got %v", p.Colors)
	}
}

func TestNormalizeFallsBackToCodeWhenHTMLBlank(t *testing.T) {
	raw := json.RawMessage(`{"title":"t","description":"d","html_code":"","code":"<p>used</p>","colors":[]}`)
	p, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !strings.Contains(p.HTML, "<p>used</p>") {
		t.Errorf("expected code fallback, got %s", p.HTML)
	}
}

func TestNormalizeColors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"list", `["#000000","#ffffff"]`, []string{"#000000", "#ffffff"}},
		{"list mixed", `["#000000", {"x":1}, null, "#ffffff"]`, []string{"#000000", "#ffffff"}},
		{"mapping in document order", `{"primary":"#ff0000","accent":"#00ff00","bg":"#0000ff"}`, []string{"#ff0000", "#00ff00", "#0000ff"}},
		{"mapping non-string values", `{"primary":"#ff0000","weights":[1,2]}`, []string{"#ff0000"}},
		{"string", `"#ff00aa"`, []string{"#ff00aa"}},
		{"blank string", `"  "`, []string{}},
		{"number", `42`, []string{}},
		{"null", `null`, []string{}},
		{"bool", `true`, []string{}},
		{"absent", ``, []string{}},
		{"truncated to six", `["1","2","3","4","5","6","7","8"]`, []string{"1", "2", "3", "4", "5", "6"}},
		{"mapping truncated", `{"a":"1","b":"2","c":"3","d":"4","e":"5","f":"6","g":"7"}`, []string{"1", "2", "3", "4", "5", "6"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeColors(json.RawMessage(tt.raw))
			if got == nil {
				t.Fatal("colors must never be nil")
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrapHTML(t *testing.T) {
	full := "<!doctype html><HTML><body><div>own shell</div></body></HTML>"
	if got := WrapHTML(full); got != full {
		t.Errorf("full document should be left alone, got %s", got)
	}

	wrapped := WrapHTML("<div>fragment</div>")
	if !strings.HasPrefix(wrapped, "<!DOCTYPE html>") {
		t.Errorf("wrapped HTML should start with doctype: %.40s", wrapped)
	}
	if strings.Count(wrapped, "<div>fragment</div>") != 1 {
		t.Error("fragment should appear exactly once")
	}
	if strings.Contains(wrapped, "{{content}}") {
		t.Error("placeholder left in output")
	}
	if !strings.Contains(wrapped, `name="viewport"`) {
		t.Error("viewport meta missing")
	}
}
