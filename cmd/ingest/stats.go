package main

import (
	"context"
	"fmt"

	"legal-rag-be/internal/dto"
	"legal-rag-be/pkg/legal"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show indexed documents and chunk counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		out := cmd.OutOrStdout()

		stats, err := documents.Stats(ctx)
		if err != nil {
			return err
		}
		docs, err := documents.List(ctx)
		if err != nil {
			return err
		}

		headColor.Fprintf(out, "%d documents, %d chunks\n", stats.TotalDocuments, stats.TotalChunks)
		for _, d := range docs {
			fmt.Fprintf(out, "  %-50s %5d\n", d.Filename, d.ChunkCount)
		}
		return nil
	},
}

var searchTopK int

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a raw similarity search against the index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := documents.Search(context.Background(), &dto.SearchRequest{Query: args[0], TopK: searchTopK})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(results) == 0 {
			fmt.Fprintln(out, "No results found.")
			return nil
		}
		for i, r := range results {
			headColor.Fprintf(out, "[%d] %s", i+1, r.Location)
			fmt.Fprintf(out, "  relevance %.2f\n", r.RelevanceScore)
			fmt.Fprintf(out, "    %s\n", legal.FormatForDisplay(r.Metadata))
			fmt.Fprintf(out, "    %s\n", snippet(r.Text, 200))
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 5, "number of results")
	rootCmd.AddCommand(statsCmd, searchCmd)
}

func snippet(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
