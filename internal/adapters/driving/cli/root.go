// Package cli provides the cobra command tree for sercha-chat.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-chat/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Services injected by the composition root.
var (
	searchService   driving.SearchService
	answerService   driving.AnswerService
	settingsService driving.SettingsService
	actionService   driving.ActionService
	promptWatcher   PromptWatcher
)

var (
	verboseFlag bool
	elapsedFlag bool
)

// PromptWatcher reloads prompt templates when they change on disk.
type PromptWatcher interface {
	Watch(ctx context.Context) error
}

// Services holds the driving ports the commands use.
// Any field may be nil; commands that need a missing service fail with an error.
type Services struct {
	Search   driving.SearchService
	Answer   driving.AnswerService
	Settings driving.SettingsService
	Actions  driving.ActionService
	Prompts  PromptWatcher
}

var rootCmd = &cobra.Command{
	Use:   "sercha-chat",
	Short: "Ask questions about your indexed documents",
	Long: `sercha-chat answers questions from documents indexed by Sercha.

Answers are streamed from the configured LLM and cite the documents they
draw on as numbered links. Run 'sercha-chat settings llm' to choose a
provider before asking your first question.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
		logger.SetElapsed(elapsedFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "print diagnostic logs to stderr")
	rootCmd.PersistentFlags().BoolVar(&elapsedFlag, "elapsed", false, "prefix logs with time since start")
}

// SetServices injects the services used by the commands.
func SetServices(s Services) {
	searchService = s.Search
	answerService = s.Answer
	settingsService = s.Settings
	actionService = s.Actions
	promptWatcher = s.Prompts
}

// SetVersion sets the version reported by 'sercha-chat version'.
func SetVersion(v string) {
	version = v
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// watchPrompts reloads prompts in the background until ctx is done.
// Long-running commands call it so prompt edits apply without a restart.
func watchPrompts(ctx context.Context) {
	if promptWatcher == nil {
		return
	}
	go func() {
		if err := promptWatcher.Watch(ctx); err != nil {
			logger.Warn("Prompt watcher stopped: %v", err)
		}
	}()
}
