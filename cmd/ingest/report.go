package main

import (
	"fmt"
	"io"
	"sort"

	"legal-rag-be/internal/dto"

	"github.com/fatih/color"
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
	warnColor = color.New(color.FgYellow)
	headColor = color.New(color.FgCyan, color.Bold)
)

func printBatchReport(w io.Writer, res *dto.IngestBatchResponse) {
	names := make([]string, 0, len(res.Ingested))
	for name := range res.Ingested {
		names = append(names, name)
	}
	sort.Strings(names)

	total := 0
	for _, name := range names {
		total += res.Ingested[name]
		okColor.Fprintf(w, "  ✔ %s (%d chunks)\n", name, res.Ingested[name])
	}
	for _, f := range res.Failed {
		failColor.Fprintf(w, "  ✘ %s: %s\n", f.Filename, f.Error)
	}

	headColor.Fprintf(w, "Ingested %d documents (%d chunks), %d failed\n", len(names), total, len(res.Failed))
}

func printCleanupReport(w io.Writer, res *dto.CleanupResponse) {
	if len(res.OrphanedFiles) == 0 {
		fmt.Fprintln(w, "No orphaned documents")
		return
	}
	for _, name := range res.OrphanedFiles {
		warnColor.Fprintf(w, "  - removed %s\n", name)
	}
	headColor.Fprintf(w, "Removed %d orphaned documents (%d chunks)\n", len(res.OrphanedFiles), res.ChunksDeleted)
}
