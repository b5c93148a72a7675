// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package recipe

import (
	"fmt"
	"strings"

	"designforge/internal/models"
)

// SystemPrompt accompanies every generation instruction.
const SystemPrompt = `You are a senior UI designer and front-end engineer. You invent original, production-quality interface components and hand them over as a single JSON object. You never add commentary outside the JSON.`

// Compose builds the generation instruction for a recipe. When req is not
// nil its title, description, audience and reference notes are appended as
// the highest-priority context.
func Compose(r models.Recipe, req *models.DesignRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Design a single, self-contained UI component for the %q category.\n", r.Category)
	fmt.Fprintf(&b, "Layout structure: %s.\n", r.Structure)
	fmt.Fprintf(&b, "Visual style: %s.\n\n", r.Style)

	b.WriteString(`Requirements:
- Use HTML with Tailwind CSS utility classes. Inline <style> is allowed for effects Tailwind cannot express.
- The component must render correctly inside a 1400px wide page without any build step.
- Do NOT make the outermost container full-viewport: never use 100vh, h-screen, min-h-screen or min-h-[100vh] on it. Let the content define the height.
- Use realistic copy, not lorem ipsum.
- Choose a palette of 3 to 6 hex colors and use them consistently.

Reply with ONE JSON object and nothing else. Do not wrap it in markdown code fences. The object must have exactly these keys:
{
  "title": "short name of the component",
  "description": "two or three sentences describing the design and its intent",
  "features": ["notable feature", "..."],
  "usage": "when and where to use this component",
  "html_code": "the complete HTML markup",
  "react_code": "the same component as a React function component using Tailwind classes",
  "colors": ["#RRGGBB", "..."]
}
`)

	if req != nil {
		b.WriteString("\nHIGHEST PRIORITY - this design was requested by a user. Follow the request below over any conflicting guidance above.\n")
		fmt.Fprintf(&b, "Request title: %s\n", strings.TrimSpace(req.Title))
		if d := strings.TrimSpace(req.Description); d != "" {
			fmt.Fprintf(&b, "Request description: %s\n", d)
		}
		if v := deref(req.TargetAudience); v != "" {
			fmt.Fprintf(&b, "Target audience: %s\n", v)
		}
		if v := deref(req.ReferenceNotes); v != "" {
			fmt.Fprintf(&b, "References: %s\n", v)
		}
	}

	return b.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
