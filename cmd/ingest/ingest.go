package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"legal-rag-be/internal/dto"

	"github.com/spf13/cobra"
)

const batchLimit = 100

var (
	ingestSourceTag string
	ingestYear      int
	ingestAsync     bool
	ingestCleanup   bool
	ingestWait      time.Duration
)

var ingestCmd = &cobra.Command{
	Use:   "load [dir]",
	Short: "Ingest extracted judgment text files",
	Long: `Ingests every .txt file in dir (default: INGEST_WATCH_DIR). Each file holds
the extracted text of one judgment and is indexed under its name without the
.txt suffix. Re-ingesting a file replaces its earlier chunks.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSourceTag, "source-tag", "", "source tag stored on every chunk (default \"SCOB 2015\")")
	ingestCmd.Flags().IntVar(&ingestYear, "year", 0, "publication year stored on every chunk (default 2015)")
	ingestCmd.Flags().BoolVar(&ingestAsync, "async", false, "queue documents for the ingestion consumer instead of ingesting inline")
	ingestCmd.Flags().BoolVar(&ingestCleanup, "cleanup", false, "delete indexed documents that no longer exist in dir")
	ingestCmd.Flags().DurationVar(&ingestWait, "wait", 5*time.Minute, "how long --async waits for the queue to drain")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	dir := cfg.Ingest.WatchDir
	if len(args) > 0 {
		dir = args[0]
	}

	docs, err := loadDirectory(dir, ingestSourceTag, ingestYear)
	if err != nil {
		return fmt.Errorf("load %s: %w", dir, err)
	}
	if len(docs) == 0 {
		warnColor.Fprintf(cmd.OutOrStdout(), "No %s files in %s\n", textExt, dir)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	headColor.Fprintf(cmd.OutOrStdout(), "Ingesting %d documents from %s\n", len(docs), dir)
	if ingestAsync {
		err = enqueueAll(ctx, cmd, docs)
	} else {
		err = ingestAll(ctx, cmd, docs)
	}
	if err != nil {
		return err
	}

	if ingestCleanup {
		valid := make([]string, len(docs))
		for i, d := range docs {
			valid[i] = d.Filename
		}
		res, err := documents.Cleanup(ctx, &dto.CleanupRequest{ValidFilenames: valid})
		if err != nil {
			return fmt.Errorf("cleanup: %w", err)
		}
		printCleanupReport(cmd.OutOrStdout(), res)
	}
	return nil
}

func ingestAll(ctx context.Context, cmd *cobra.Command, docs []dto.IngestDocumentRequest) error {
	merged := &dto.IngestBatchResponse{Ingested: map[string]int{}}
	for start := 0; start < len(docs); start += batchLimit {
		end := min(start+batchLimit, len(docs))
		res, err := documents.IngestBatch(ctx, &dto.IngestBatchRequest{Documents: docs[start:end]})
		if err != nil {
			return err
		}
		for name, n := range res.Ingested {
			merged.Ingested[name] = n
		}
		merged.Failed = append(merged.Failed, res.Failed...)
	}

	printBatchReport(cmd.OutOrStdout(), merged)
	if len(merged.Failed) > 0 {
		return fmt.Errorf("%d documents failed", len(merged.Failed))
	}
	return nil
}

// enqueueAll publishes every document to the ingestion queue, runs the
// consumer in-process and waits until each document shows up in the index.
func enqueueAll(ctx context.Context, cmd *cobra.Command, docs []dto.IngestDocumentRequest) error {
	consumeCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := consumer.Consume(consumeCtx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}

	pending := make(map[string]struct{}, len(docs))
	for i := range docs {
		if err := documents.Enqueue(ctx, &docs[i]); err != nil {
			failColor.Fprintf(cmd.OutOrStdout(), "  ✘ %s: %v\n", docs[i].Filename, err)
			continue
		}
		pending[docs[i].Filename] = struct{}{}
	}

	deadline := time.After(ingestWait)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for len(pending) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return errors.New("timed out waiting for queued documents; see " + cliLogPath)
		case <-ticker.C:
			indexed, err := documents.List(ctx)
			if err != nil {
				return err
			}
			for _, d := range indexed {
				if _, ok := pending[d.Filename]; ok {
					okColor.Fprintf(cmd.OutOrStdout(), "  ✔ %s (%d chunks)\n", d.Filename, d.ChunkCount)
					delete(pending, d.Filename)
				}
			}
		}
	}
	return nil
}
