package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/readmeter/readmeter/internal/article"
	"github.com/readmeter/readmeter/internal/plaintext"
)

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	var data []byte
	var filename string
	var title string

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		filename = sanitizeFilename(header.Filename)
		title = r.FormValue("title")

		data, err = io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
		if err != nil {
			jsonError(w, "failed to read file", http.StatusInternalServerError)
			return
		}
	} else {
		// Raw body: treat as the article text itself. The optional
		// filename query parameter picks the extractor.
		body, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxUploadBytes+1))
		if err != nil {
			jsonError(w, "failed to read body", http.StatusBadRequest)
			return
		}
		data = body
		filename = sanitizeFilename(r.URL.Query().Get("filename"))
		if filename == "unnamed" {
			filename = "article.txt"
		}
		title = r.URL.Query().Get("title")
	}

	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("content exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	if !plaintext.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	a, err := s.analyzeOne(data, filename, title)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(a)
}

func (s *Server) handleBatchAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	var results []map[string]any
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		if !plaintext.IsSupportedExtension(filename) {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
			})
			continue
		}

		f, err := fh.Open()
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "failed to open file",
			})
			continue
		}

		data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "file too large or read error",
			})
			continue
		}

		a, err := s.analyzeOne(data, filename, "")
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		results = append(results, map[string]any{
			"filename":     filename,
			"id":           a.ID,
			"title":        a.Title,
			"word_count":   a.Analysis.WordCount,
			"minutes":      a.Analysis.Minutes,
			"reading_time": a.Analysis.ReadingTime,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"articles": results})
}

// analyzeOne extracts text, computes the analysis, and records the article.
func (s *Server) analyzeOne(data []byte, filename, titleOverride string) (*article.Article, error) {
	ext, err := plaintext.ForFile(filename)
	if err != nil {
		return nil, err
	}
	if pe, ok := ext.(*plaintext.PDFExtractor); ok {
		pe.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}

	start := time.Now()
	doc, err := ext.Extract(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	a := &article.Article{
		ID:         article.ContentHashHex(data)[:16],
		Filename:   filename,
		Title:      doc.Title,
		Author:     doc.Meta.Author,
		Tags:       doc.Meta.Tags,
		Date:       doc.Meta.Date,
		Draft:      doc.Meta.Draft,
		Body:       doc.Text,
		Analysis:   article.Analyze(doc.Text),
		AnalyzedAt: time.Now(),
	}
	if titleOverride != "" {
		a.Title = titleOverride
	}

	s.store.Put(a)
	s.stats.Record(a.Analysis.WordCount, time.Since(start).Milliseconds())
	return a, nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
