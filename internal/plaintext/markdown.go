package plaintext

import (
	"bytes"
	"io"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor handles Markdown and MDX files using goldmark.
// Frontmatter is split off before parsing and surfaced as Metadata.
type MarkdownExtractor struct{}

func (e *MarkdownExtractor) Extract(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var meta Metadata
	body, err := frontmatter.Parse(bytes.NewReader(src), &meta)
	if err != nil {
		// Malformed frontmatter should not sink the article; fall back
		// to treating the whole source as body.
		body = src
		meta = Metadata{}
	}

	md := goldmark.New()
	reader := text.NewReader(body)
	root := md.Parser().Parse(reader)

	var paragraphs []string
	firstHeading := ""
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			title := string(h.Text(body))
			if firstHeading == "" && h.Level == 1 {
				firstHeading = title
			}
			paragraphs = append(paragraphs, title)
			continue
		}
		if t := blockText(n, body); t != "" {
			paragraphs = append(paragraphs, t)
		}
	}

	doc := &Document{
		Meta: meta,
		Text: joinParagraphs(paragraphs),
	}
	switch {
	case meta.Title != "":
		doc.Title = meta.Title
	case firstHeading != "":
		doc.Title = firstHeading
	default:
		doc.Title = trimExt(filename)
	}
	return doc, nil
}

// blockText gets the text content of a goldmark AST node. Leaf blocks
// carry their source lines; container blocks (lists, quotes) only have
// children, so recurse.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := blockText(c, src); t != "" {
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(t)
		}
	}
	return strings.TrimSpace(buf.String())
}
