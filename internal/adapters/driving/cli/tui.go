package cli

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/keymap"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive chat",
	Long: `Launch the interactive terminal interface for sercha-chat.

Ask questions and watch answers stream in with numbered citations, or
search your indexed documents directly.

Controls:
` + controls(keymap.DefaultKeyMap()),
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// controls lists every binding of the full help, one per line.
func controls(km *keymap.KeyMap) string {
	var b strings.Builder
	for _, group := range km.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-12s %s\n", h.Key, h.Desc)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	// A panic becomes the command's error; the stack goes to stderr.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	app, err := tui.NewApp(&tui.Ports{
		Answer:   answerService,
		Search:   searchService,
		Actions:  actionService,
		Settings: settingsService,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	watchPrompts(cmd.Context())

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
