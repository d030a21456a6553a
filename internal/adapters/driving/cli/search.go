package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

var (
	searchLimit     int
	searchOffset    int
	searchJSON      bool
	searchSourceIDs []string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Runs the retrieval step of 'ask' on its own and prints the ranked documents.

Results are ranked by BM25 keyword relevance, merged with semantic (vector)
matches and an LLM-rewritten query when the search mode enables them. Use it
to see which documents a question would be answered from.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	flags := searchCmd.Flags()
	flags.IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	flags.IntVar(&searchOffset, "offset", 0, "number of results to skip")
	flags.BoolVar(&searchJSON, "json", false, "output results as JSON")
	flags.StringSliceVar(&searchSourceIDs, "source", nil, "restrict results to these source IDs")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	results, err := searchService.Search(cmd.Context(), args[0], domain.SearchOptions{
		Limit:     searchLimit,
		Offset:    searchOffset,
		SourceIDs: searchSourceIDs,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// outputSearchTable numbers results from the offset so paging keeps counting.
func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}

	st := newSourceStyles(isTerminal(out))
	var b strings.Builder
	b.WriteString(st.header.Render("Results:"))
	b.WriteString("\n\n")

	for i := range results {
		r := &results[i]
		num := st.number.Render(fmt.Sprintf("[%d]", searchOffset+i+1))
		fmt.Fprintf(&b, "  %s %s (%.2f)\n", num, st.title.Render(r.Document.DisplayTitle()), r.Score)

		if r.Document.URI != "" {
			fmt.Fprintf(&b, "      %s\n", st.detail.Render(r.Document.URI))
		}
		if r.SourceName != "" {
			fmt.Fprintf(&b, "      %s\n", st.detail.Render("Source: "+r.SourceName))
		}
		if len(r.Highlights) > 0 {
			fmt.Fprintf(&b, "      %s\n", r.Highlights[0])
		}
		b.WriteString("\n")
	}

	_, err := fmt.Fprint(out, b.String())
	return err
}
