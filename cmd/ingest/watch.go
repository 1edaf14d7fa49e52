package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"legal-rag-be/internal/entity"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const settleDelay = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Re-ingest text files as they change",
	Long: `Watches dir (default: INGEST_WATCH_DIR) and re-ingests a .txt file once
writes to it settle. Removing or renaming a file deletes its document from the
index. Stops on SIGINT or SIGTERM.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&ingestSourceTag, "source-tag", "", "source tag stored on every chunk")
	watchCmd.Flags().IntVar(&ingestYear, "year", 0, "publication year stored on every chunk")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := cfg.Ingest.WatchDir
	if len(args) > 0 {
		dir = args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	headColor.Fprintf(out, "Watching %s for %s files\n", dir, textExt)

	return watchDir(ctx, dir, settleDelay, func(ctx context.Context, path string, removed bool) {
		name := documentName(path)
		if removed {
			res, err := documents.Delete(ctx, name)
			switch {
			case errors.Is(err, entity.ErrDocumentNotFound):
			case err != nil:
				failColor.Fprintf(out, "  ✘ delete %s: %v\n", name, err)
			default:
				warnColor.Fprintf(out, "  - removed %s (%d chunks)\n", name, res.ChunksDeleted)
			}
			return
		}

		doc, err := loadDocument(path, ingestSourceTag, ingestYear)
		if err != nil {
			failColor.Fprintf(out, "  ✘ %v\n", err)
			return
		}
		res, err := documents.Ingest(ctx, &doc)
		if err != nil {
			failColor.Fprintf(out, "  ✘ %s: %v\n", name, err)
			return
		}
		okColor.Fprintf(out, "  ✔ %s (%d chunks)\n", res.Filename, res.ChunksAdded)
	})
}

// fileHandler is called once per settled change. removed is true when the
// file was deleted or renamed away.
type fileHandler func(ctx context.Context, path string, removed bool)

// watchDir debounces fsnotify events per file and hands settled changes to
// handle, one at a time, until ctx is done.
func watchDir(ctx context.Context, dir string, settle time.Duration, handle fileHandler) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu      sync.Mutex
		timers  = make(map[string]*time.Timer)
		removed = make(map[string]bool)
		// Handlers run on one goroutine so a file is never ingested twice at once.
		work = make(chan func(), 64)
	)
	go func() {
		for {
			select {
			case fn := <-work:
				fn()
			case <-ctx.Done():
				return
			}
		}
	}()

	schedule := func(path string, isRemoval bool) {
		mu.Lock()
		defer mu.Unlock()
		removed[path] = isRemoval
		if t, ok := timers[path]; ok {
			t.Stop()
		}
		timers[path] = time.AfterFunc(settle, func() {
			mu.Lock()
			gone := removed[path]
			delete(timers, path)
			delete(removed, path)
			mu.Unlock()

			select {
			case work <- func() { handle(ctx, path, gone) }:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			for _, t := range timers {
				t.Stop()
			}
			mu.Unlock()
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isTextFile(ev.Name) {
				continue
			}
			switch {
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				schedule(filepath.Clean(ev.Name), true)
			case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
				schedule(filepath.Clean(ev.Name), false)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher: %w", err)
		}
	}
}
