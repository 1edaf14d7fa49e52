package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"legal-rag-be/internal/dto"
)

const textExt = ".txt"

// documentName maps "judgment.pdf.txt" to "judgment.pdf": text files are the
// output of an external PDF extractor and keep the source name as their stem.
func documentName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), textExt)
}

func isTextFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), textExt) && !strings.HasPrefix(filepath.Base(path), ".")
}

func loadDocument(path, sourceTag string, year int) (dto.IngestDocumentRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dto.IngestDocumentRequest{}, fmt.Errorf("read %s: %w", path, err)
	}
	return dto.IngestDocumentRequest{
		Filename:  documentName(path),
		Filepath:  path,
		Text:      string(data),
		SourceTag: sourceTag,
		Year:      year,
	}, nil
}

// loadDirectory reads every text file directly under dir, sorted by name.
func loadDirectory(dir, sourceTag string, year int) ([]dto.IngestDocumentRequest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var docs []dto.IngestDocumentRequest
	for _, e := range entries {
		if e.IsDir() || !isTextFile(e.Name()) {
			continue
		}
		doc, err := loadDocument(filepath.Join(dir, e.Name()), sourceTag, year)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
