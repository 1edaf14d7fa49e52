package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"legal-rag-be/internal/bootstrap"
	"legal-rag-be/internal/config"
	"legal-rag-be/internal/dto"
	"legal-rag-be/internal/pkg/logger"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const judgmentText = `IN THE SUPREME COURT OF BANGLADESH
High Court Division
Civil Revision No. 12 of 2009
Abdul Karim vs Rahela Khatun
Present: Mr. Justice Md. Nizamul Huq

The petitioner challenged the decree on the ground that the land was never
transferred under the contract. The court held the transfer valid.
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func useTestStack(t *testing.T) {
	t.Helper()
	color.NoColor = true
	ingestSourceTag, ingestYear, ingestAsync, ingestCleanup = "", 0, false, false

	testCfg := &config.Config{
		Ai: config.AIConfig{
			EmbeddingProvider:   "local",
			EmbeddingDimensions: 64,
			LLMProvider:         "ollama",
			LLMModel:            "llama3",
			LLMBaseURL:          "http://127.0.0.1:0",
		},
		Rag: config.RagConfig{
			ChunkSize:            300,
			ChunkOverlap:         50,
			MinChunkSize:         20,
			TopK:                 5,
			GroundingWindow:      3,
			InsertBatchSize:      10,
			EmbeddingConcurrency: 2,
			RetryAttempts:        1,
		},
		Ingest: config.IngestConfig{Topic: "INGEST_CLI_TEST"},
	}
	container, err := bootstrap.NewContainer(nil, testCfg, bootstrap.Options{Logger: logger.NewNopLogger()})
	require.NoError(t, err)

	cfg, documents, consumer, closeStack = testCfg, container.DocumentService, container.ConsumerService, nil
	t.Cleanup(func() {
		container.Close()
		cfg, documents, consumer = nil, nil, nil
	})
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "second")
	writeFile(t, dir, "a.pdf.txt", "first")
	writeFile(t, dir, ".draft.txt", "hidden")
	writeFile(t, dir, "notes.md", "not text")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.txt"), 0o755))

	docs, err := loadDirectory(dir, "SCOB 2016", 2016)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "a.pdf", docs[0].Filename)
	assert.Equal(t, filepath.Join(dir, "a.pdf.txt"), docs[0].Filepath)
	assert.Equal(t, "first", docs[0].Text)
	assert.Equal(t, "SCOB 2016", docs[0].SourceTag)
	assert.Equal(t, 2016, docs[0].Year)
	assert.Equal(t, "b", docs[1].Filename)

	_, err = loadDirectory(filepath.Join(dir, "missing"), "", 0)
	assert.Error(t, err)
}

func TestPrintBatchReport(t *testing.T) {
	color.NoColor = true
	buf := new(bytes.Buffer)

	printBatchReport(buf, &dto.IngestBatchResponse{
		Ingested: map[string]int{"b.pdf": 2, "a.pdf": 3},
		Failed:   []dto.IngestFailureResponse{{Filename: "c.pdf", Error: "document has no extractable text"}},
	})

	out := buf.String()
	assert.Less(t, strings.Index(out, "a.pdf"), strings.Index(out, "b.pdf"))
	assert.Contains(t, out, "✘ c.pdf: document has no extractable text")
	assert.Contains(t, out, "Ingested 2 documents (5 chunks), 1 failed")
}

func TestLoadCommand(t *testing.T) {
	useTestStack(t)
	dir := t.TempDir()
	writeFile(t, dir, "karim.pdf.txt", judgmentText)
	writeFile(t, dir, "blank.pdf.txt", "   ")

	out, err := execute(t, "load", dir)
	require.Error(t, err, "a failed document makes the command fail")
	assert.Contains(t, out, "✔ karim.pdf")
	assert.Contains(t, out, "✘ blank.pdf")

	out, err = execute(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "1 documents")
	assert.Contains(t, out, "karim.pdf")

	out, err = execute(t, "search", "transfer of land under the contract", "-k", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "karim.pdf:chunk_")
	assert.Contains(t, out, "Case: Abdul Karim vs Rahela Khatun")
}

func TestLoadCommandCleanup(t *testing.T) {
	useTestStack(t)
	dir := t.TempDir()
	writeFile(t, dir, "one.pdf.txt", judgmentText)
	stale := writeFile(t, dir, "two.pdf.txt", judgmentText)

	_, err := execute(t, "load", dir)
	require.NoError(t, err)

	require.NoError(t, os.Remove(stale))
	out, err := execute(t, "load", dir, "--cleanup")
	require.NoError(t, err)
	assert.Contains(t, out, "removed two.pdf")

	docs, err := documents.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "one.pdf", docs[0].Filename)
}

func TestLoadCommandAsync(t *testing.T) {
	useTestStack(t)
	dir := t.TempDir()
	writeFile(t, dir, "queued.pdf.txt", judgmentText)

	out, err := execute(t, "load", dir, "--async", "--wait", "10s")
	require.NoError(t, err)
	assert.Contains(t, out, "✔ queued.pdf")
}

func TestWatchDir(t *testing.T) {
	dir := t.TempDir()

	type change struct {
		name    string
		removed bool
	}
	var (
		mu      sync.Mutex
		changes []change
	)
	record := func(ctx context.Context, path string, removed bool) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, change{documentName(path), removed})
	}
	seen := func() []change {
		mu.Lock()
		defer mu.Unlock()
		return append([]change(nil), changes...)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watchDir(ctx, dir, 50*time.Millisecond, record) }()
	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)

	path := writeFile(t, dir, "fresh.pdf.txt", "first draft")
	writeFile(t, dir, "fresh.pdf.txt", "second draft")
	writeFile(t, dir, "ignored.md", "not watched")

	require.Eventually(t, func() bool { return len(seen()) == 1 }, 2*time.Second, 20*time.Millisecond,
		"burst of writes settles into one change")
	assert.Equal(t, change{"fresh.pdf", false}, seen()[0])

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool { return len(seen()) == 2 }, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, change{"fresh.pdf", true}, seen()[1])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
