// Package render turns post bodies into HTML. Markdown goes through
// goldmark with syntax highlighting; internal links are validated against
// the live set of posts and images so an editor cannot publish a dangling
// reference.
package render

import (
	"bytes"
	"fmt"
	stdhtml "html"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"inkwell/app/keyschema"
	"inkwell/app/models"
)

// ValidLinks is the set of internal paths a post may reference.
type ValidLinks map[string]struct{}

// BuildValidLinks collects every internal path that currently resolves:
// post pages plus each image variant.
func BuildValidLinks(slugs, imageIDs []string) ValidLinks {
	valid := make(ValidLinks, len(slugs)+4*len(imageIDs))
	for _, slug := range slugs {
		valid["/posts/"+slug] = struct{}{}
	}
	for _, id := range imageIDs {
		valid["/images/"+id] = struct{}{}
		for _, v := range []keyschema.ImageVariant{keyschema.VariantOriginal, keyschema.VariantLarge, keyschema.VariantThumbnail} {
			valid["/"+keyschema.ImageKey(id, v)] = struct{}{}
		}
	}
	return valid
}

// Contains reports whether the path resolves.
func (v ValidLinks) Contains(path string) bool {
	_, ok := v[strings.TrimSuffix(path, "/")]
	return ok
}

// Renderer converts post content to HTML.
type Renderer struct {
	md goldmark.Markdown
}

// New creates a renderer with the standard pipeline.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle("nord"),
					highlighting.WithFormatOptions(
						chromahtml.WithClasses(true),
					),
				),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}
}

// Render converts content to HTML. Relative links and image sources must
// resolve within valid; external (absolute) URLs pass through untouched.
// reStructuredText has no native renderer here and is emitted preformatted.
func (r *Renderer) Render(contentType models.ContentType, content string, valid ValidLinks) (string, error) {
	switch contentType {
	case models.ContentTypeRestructuredText:
		return "<pre>" + stdhtml.EscapeString(content) + "</pre>\n", nil
	case models.ContentTypeMarkdown, "":
	default:
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}

	src := []byte(content)
	doc := r.md.Parser().Parse(text.NewReader(src))

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		var dest string
		switch v := n.(type) {
		case *ast.Link:
			dest = string(v.Destination)
		case *ast.Image:
			dest = string(v.Destination)
		default:
			return ast.WalkContinue, nil
		}
		if strings.HasPrefix(dest, "/") && !valid.Contains(dest) {
			return ast.WalkStop, fmt.Errorf("link %q references a relative path which does not exist", dest)
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
