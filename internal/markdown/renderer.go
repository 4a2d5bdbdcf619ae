// Package markdown converts document bodies to HTML.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Options controls body rendering.
type Options struct {
	// Unsafe passes raw HTML through. Bodies are edited through the admin UI,
	// so it is off unless configured.
	Unsafe bool
	// HardWraps turns single newlines into <br>.
	HardWraps bool
}

// Renderer renders Markdown bodies. It holds no per-call state and is safe
// for concurrent use.
type Renderer struct {
	engine goldmark.Markdown
}

// New builds a Renderer with GFM, linkify and automatic heading IDs.
func New(opts Options) *Renderer {
	var rendererOptions []renderer.Option
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if opts.Unsafe {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	engineOptions := []goldmark.Option{
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}
	if len(rendererOptions) > 0 {
		engineOptions = append(engineOptions, goldmark.WithRendererOptions(rendererOptions...))
	}

	return &Renderer{engine: goldmark.New(engineOptions...)}
}

// Render returns body as HTML. An empty body renders to "".
func (r *Renderer) Render(body string) (string, error) {
	if body == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.engine.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
