package notes

import (
	"html/template"
	"sync"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// CompositionIntro is shown above the note
const CompositionIntro = "General understanding of parameter impact:"

// CompositionMarkdown maps disease categories to expected body-composition changes
const CompositionMarkdown = `- **Obesity**: ↑ Fat %, ↓ Muscle Mass
- **Malnutrition**: ↓ Protein, ↓ BMI
- **Chronic Kidney Disease (CKD)**: ↑ ECW/TBW ratio, altered impedance
`

var (
	renderOnce sync.Once
	rendered   template.HTML
)

// CompositionHTML returns the note rendered to HTML. The markdown is a
// compile-time constant, so the output is trusted.
func CompositionHTML() template.HTML {
	renderOnce.Do(func() {
		rendered = template.HTML(Render(CompositionMarkdown))
	})
	return rendered
}

// Render converts markdown to HTML with common extensions and safe links
func Render(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank | html.Safelink,
	})
	return string(markdown.Render(doc, renderer))
}
