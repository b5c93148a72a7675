// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package payload validates and repairs the JSON object a model returns for
// a design. Models are loose with types, so every field is coerced into one
// fixed shape before anything downstream sees it.
package payload

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"designforge/internal/ai"
	"designforge/internal/models"
)

// ErrValidation marks a payload that is missing a required key or has a
// required key of the wrong shape.
var ErrValidation = errors.New("payload: validation failed")

// DefaultTitle replaces a blank title.
const DefaultTitle = "Untitled Design"

// AnchorID is the id of the element that wraps the component in the shell.
const AnchorID = "capture-box"

//go:embed shell.html
var shell string

// Payload is a validated design reply.
type Payload struct {
	Title       string
	Description string
	Features    []string
	Usage       string
	HTML        string // complete document, wrapped in the shell when needed
	ReactCode   string
	Colors      []string
}

// Normalize validates raw and coerces it into a Payload.
//
// Required keys: title, description, html_code (or code), colors. Their
// presence is what is checked; a blank title becomes DefaultTitle and a
// malformed colors value becomes an empty list.
func Normalize(raw json.RawMessage) (*Payload, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: not a JSON object: %v", ErrValidation, err)
	}

	for _, key := range []string{"title", "description", "colors"} {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrValidation, key)
		}
	}

	htmlRaw, ok := fields["html_code"]
	if !ok || isBlank(htmlRaw) {
		if code, hasCode := fields["code"]; hasCode {
			htmlRaw, ok = code, true
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: missing \"html_code\"", ErrValidation)
	}

	html, isString := asString(htmlRaw)
	html = ai.StripFences(html)
	if !isString || html == "" {
		return nil, fmt.Errorf("%w: html_code must be a non-empty string", ErrValidation)
	}

	description, isString := asString(fields["description"])
	if !isString && !isNull(fields["description"]) {
		return nil, fmt.Errorf("%w: description must be a string", ErrValidation)
	}

	title, _ := asString(fields["title"])
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}

	usage, _ := asString(fields["usage"])
	react, _ := asString(fields["react_code"])

	return &Payload{
		Title:       title,
		Description: strings.TrimSpace(description),
		Features:    stringList(fields["features"]),
		Usage:       strings.TrimSpace(usage),
		HTML:        WrapHTML(html),
		ReactCode:   ai.StripFences(react),
		Colors:      NormalizeColors(fields["colors"]),
	}, nil
}

// WrapHTML embeds a fragment in the capture shell unless it is already a
// full document.
func WrapHTML(fragment string) string {
	if strings.Contains(strings.ToLower(fragment), "<html") {
		return fragment
	}
	return strings.Replace(shell, "{{content}}", fragment, 1)
}

// NormalizeColors coerces a colors value into a list of at most
// models.MaxColors strings. A list keeps its string elements, an object
// contributes its string values in document order, a string becomes a
// one-element list, and anything else yields an empty list.
func NormalizeColors(raw json.RawMessage) []string {
	t := bytes.TrimSpace(raw)
	out := []string{}
	if len(t) == 0 {
		return out
	}

	switch t[0] {
	case '[':
		out = stringList(t)
	case '{':
		out = objectValues(t)
	case '"':
		if s, _ := asString(t); strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}

	if len(out) > models.MaxColors {
		out = out[:models.MaxColors]
	}
	return out
}

// stringList returns the non-blank string elements of a JSON array, or a
// one-element list for a JSON string. Other shapes yield an empty list.
func stringList(raw json.RawMessage) []string {
	out := []string{}
	if s, ok := asString(raw); ok {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
		return out
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, item := range items {
		if s, ok := asString(item); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// objectValues returns the non-blank string values of a JSON object in the
// order they appear in the document.
func objectValues(raw json.RawMessage) []string {
	out := []string{}
	dec := json.NewDecoder(bytes.NewReader(raw))

	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return out
	}
	for dec.More() {
		if _, err := dec.Token(); err != nil { // key
			return out
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return out
		}
		if s, ok := asString(v); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func asString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func isBlank(raw json.RawMessage) bool {
	s, ok := asString(raw)
	return isNull(raw) || (ok && strings.TrimSpace(s) == "")
}
