package publisher

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"auto_sketch_enhancer/composer"
	"auto_sketch_enhancer/surface"
)

// Report is everything known about one generation.
type Report struct {
	Title       string
	Description string
	Prompt      string
	Styles      []string
	Fallback    bool
	CreatedAt   time.Time
	Original    surface.Sketch
	Result      surface.Sketch
}

const defaultTitle = "Sketch Enhancer"

// Markdown renders r as a markdown document. Images are inlined as data URIs.
func (r Report) Markdown() string {
	title := r.Title
	if title == "" {
		title = defaultTitle
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escapeMarkdown(title))
	if !r.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "_%s_\n\n", r.CreatedAt.UTC().Format(time.RFC3339))
	}

	b.WriteString("## Description\n\n")
	if r.Fallback {
		b.WriteString("The enhancement failed; the original sketch is shown unchanged.\n\n")
	} else {
		b.WriteString(escapeMarkdown(r.Description) + "\n\n")
	}

	if !r.Fallback {
		plan := composer.PlanFor(r.Description)
		b.WriteString("## Composition\n\n")
		fmt.Fprintf(&b, "- Background: %s\n", plan.Background.Name)
		elems := plan.Names()
		if len(elems) == 0 {
			b.WriteString("- Elements: none\n")
		} else {
			fmt.Fprintf(&b, "- Elements: %s\n", strings.Join(elems, ", "))
		}
		if r.Prompt != "" {
			fmt.Fprintf(&b, "- Prompt: %s\n", escapeMarkdown(r.Prompt))
		}
		if len(r.Styles) > 0 {
			fmt.Fprintf(&b, "- Styles: %s\n", escapeMarkdown(strings.Join(r.Styles, ", ")))
		}
		b.WriteString("\n")
	}

	if len(r.Result.Data) > 0 {
		fmt.Fprintf(&b, "## Result\n\n![result](%s)\n\n", r.Result.DataURI())
	}
	if len(r.Original.Data) > 0 {
		fmt.Fprintf(&b, "## Original sketch\n\n![original](%s)\n", r.Original.DataURI())
	}
	return b.String()
}

// RenderHTML converts the report markdown into a standalone HTML page.
func RenderHTML(r Report) (string, error) {
	body, err := mdToHTML(r.Markdown())
	if err != nil {
		return "", err
	}
	title := r.Title
	if title == "" {
		title = defaultTitle
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&b, "<title>%s</title>", html.EscapeString(title))
	b.WriteString(`<style>body{font-family:sans-serif;max-width:960px;margin:2em auto;padding:0 1em;}img{max-width:100%;border:1px solid #ddd;}</style>`)
	b.WriteString("</head><body>\n")
	b.WriteString(body)
	b.WriteString("</body></html>\n")
	return b.String(), nil
}

func mdToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`, `[`, `\[`, `]`, `\]`,
	`<`, `\<`, `>`, `\>`, `#`, `\#`, `!`, `\!`, `|`, `\|`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
