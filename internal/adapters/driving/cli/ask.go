package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

var (
	askLimit     int
	askJSON      bool
	askNoSources bool
	askSourceIDs []string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about indexed documents",
	Long: `Answers a question from your indexed documents.

The answer is streamed as it is generated. Citations are rewritten to
numbered links such as [[1]](https://example.com/doc), and the cited
documents are listed once the answer is complete.

Use --json to receive the answer as newline-delimited JSON events.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askLimit, "limit", "n", 0, "maximum documents given to the model (0 = configured default)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output answer events as NDJSON")
	askCmd.Flags().BoolVar(&askNoSources, "no-sources", false, "do not list cited sources")
	askCmd.Flags().StringSliceVar(&askSourceIDs, "source", nil, "restrict retrieval to these source IDs")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	question := strings.Join(args, " ")
	events, err := answerService.Ask(cmd.Context(), question, domain.AnswerOptions{
		MaxDocuments: askLimit,
		SourceIDs:    askSourceIDs,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if askJSON {
		return streamAnswerJSON(out, events)
	}

	answer, err := streamAnswerText(out, events)
	if err != nil {
		return err
	}
	if !askNoSources && answer != nil && len(answer.Sources) > 0 {
		fmt.Fprintln(out)
		fmt.Fprint(out, renderSources(answer.Sources, newSourceStyles(isTerminal(out))))
	}
	return nil
}

// streamAnswerText writes text events as they arrive and returns the final answer.
func streamAnswerText(out io.Writer, events <-chan domain.AnswerEvent) (*domain.Answer, error) {
	var answer *domain.Answer
	var failure error
	wrote := false
	for ev := range events {
		switch ev.Type {
		case domain.AnswerEventText:
			fmt.Fprint(out, ev.Text)
			wrote = true
		case domain.AnswerEventDone:
			answer = ev.Answer
		case domain.AnswerEventError:
			failure = errors.New(ev.Error)
		}
	}
	if wrote {
		fmt.Fprintln(out)
	}
	if failure != nil {
		return nil, fmt.Errorf("answer failed: %w", failure)
	}
	return answer, nil
}

// streamAnswerJSON writes one JSON object per event.
func streamAnswerJSON(out io.Writer, events <-chan domain.AnswerEvent) error {
	enc := json.NewEncoder(out)
	var failure error
	for ev := range events {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		if ev.Type == domain.AnswerEventError {
			failure = errors.New(ev.Error)
		}
	}
	if failure != nil {
		return fmt.Errorf("answer failed: %w", failure)
	}
	return nil
}

type sourceStyles struct {
	header lipgloss.Style
	number lipgloss.Style
	title  lipgloss.Style
	detail lipgloss.Style
}

// newSourceStyles returns plain styles unless colour is wanted.
func newSourceStyles(colour bool) sourceStyles {
	if !colour {
		plain := lipgloss.NewStyle()
		return sourceStyles{header: plain, number: plain, title: plain, detail: plain}
	}
	return sourceStyles{
		header: lipgloss.NewStyle().Bold(true),
		number: lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		title:  lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		detail: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// renderSources formats the cited documents as a footer.
func renderSources(sources []domain.SourceDocument, st sourceStyles) string {
	var b strings.Builder
	b.WriteString(st.header.Render("Sources:"))
	b.WriteString("\n")
	for _, src := range sources {
		title := src.Title
		if title == "" {
			title = src.DocumentID
		}
		fmt.Fprintf(&b, "  %s %s\n", st.number.Render(fmt.Sprintf("[%d]", src.DisplayNumber)), st.title.Render(title))

		var details []string
		if src.URI != "" {
			details = append(details, src.URI)
		}
		if src.SourceName != "" {
			details = append(details, src.SourceName)
		}
		if len(details) > 0 {
			fmt.Fprintf(&b, "      %s\n", st.detail.Render(strings.Join(details, " · ")))
		}
	}
	return b.String()
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
