package plaintext

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Metadata is article frontmatter carried alongside the extracted text.
type Metadata struct {
	Title  string    `yaml:"title"`
	Author string    `yaml:"author"`
	Tags   []string  `yaml:"tags"`
	Date   time.Time `yaml:"date"`
	Draft  bool      `yaml:"draft"`
}

// Document is the flat plain-text form of one article.
type Document struct {
	Title string
	Meta  Metadata
	Text  string
}

// Extractor converts raw article bytes into a plain-text Document.
type Extractor interface {
	Extract(r io.Reader, filename string) (*Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".mdx":      true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextExtractor{}, nil
	case ".md", ".mdx", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".pdf":
		return &PDFExtractor{}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// trimExt strips the file extension to use the base name as a title fallback.
func trimExt(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// joinParagraphs builds the document text from non-empty paragraphs.
func joinParagraphs(paragraphs []string) string {
	var kept []string
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
