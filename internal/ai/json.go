// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// errNotObject is returned by ParseObject when the reply holds no JSON object.
var errNotObject = errors.New("reply is not a JSON object")

// openingFence matches a leading triple-backtick fence with an optional
// language tag ("```", "```json", "```html").
var openingFence = regexp.MustCompile("^```[A-Za-z0-9_+-]*")

// StripFences removes a leading and a trailing triple-backtick fence from s,
// with or without a language tag. Text without fences is returned trimmed.
func StripFences(s string) string {
	t := strings.TrimSpace(s)
	if loc := openingFence.FindStringIndex(t); loc != nil {
		t = strings.TrimSpace(t[loc[1]:])
	}
	if strings.HasSuffix(t, "```") {
		t = strings.TrimSpace(strings.TrimSuffix(t, "```"))
	}
	return t
}

// ParseObject repairs a model reply into a single JSON object: fences are
// stripped and, when the model surrounded the object with prose before or
// after it, the outermost braces are cut out. Anything that is still not a
// JSON object is an error.
func ParseObject(reply string) (json.RawMessage, error) {
	t := StripFences(reply)

	if !isObject(t) {
		start := strings.Index(t, "{")
		end := strings.LastIndex(t, "}")
		if start < 0 || end <= start {
			return nil, errNotObject
		}
		t = t[start : end+1]
		if !isObject(t) {
			return nil, errNotObject
		}
	}
	return json.RawMessage(t), nil
}

func isObject(s string) bool {
	if !strings.HasPrefix(s, "{") || !json.Valid([]byte(s)) {
		return false
	}
	var obj map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &obj) == nil
}
