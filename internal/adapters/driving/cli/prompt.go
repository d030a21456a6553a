package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// prompter asks questions on the command's input and output streams.
type prompter struct {
	out    io.Writer
	in     *bufio.Reader
	secret func() (string, bool)
}

func newPrompter(cmd *cobra.Command) *prompter {
	in := cmd.InOrStdin()
	p := &prompter{out: cmd.OutOrStdout(), in: bufio.NewReader(in)}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.secret = func() (string, bool) {
			b, err := term.ReadPassword(int(f.Fd()))
			return string(b), err == nil
		}
	}
	return p
}

// ask prints label and returns the trimmed reply, or def when it is empty.
func (p *prompter) ask(label, def string) string {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	line, _ := p.in.ReadString('\n') //nolint:errcheck // EOF yields the default
	if line = strings.TrimSpace(line); line != "" {
		return line
	}
	return def
}

// askSecret reads without echo on a terminal.
func (p *prompter) askSecret(label string) string {
	if p.secret == nil {
		return p.ask(label, "")
	}
	fmt.Fprintf(p.out, "%s: ", label)
	v, ok := p.secret()
	fmt.Fprintln(p.out)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// choose lists options numbered from 1 and returns the picked index. def is
// 1-based; zero means there is no default and an invalid reply returns -1.
func (p *prompter) choose(title string, options []string, def int) int {
	fmt.Fprintln(p.out, title)
	for i, o := range options {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, o)
	}
	fmt.Fprintln(p.out)

	reply := p.ask("Enter choice", defaultLabel(def))
	return parseChoice(reply, len(options), def) - 1
}

func defaultLabel(def int) string {
	if def == 0 {
		return ""
	}
	return strconv.Itoa(def)
}

// parseChoice returns input as a number in [1, maxVal], or defaultVal.
func parseChoice(input string, maxVal, defaultVal int) int {
	val, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// orNone returns shown, or "(none)" when value is empty.
func orNone(shown, value string) string {
	if value == "" {
		return "(none)"
	}
	return shown
}
