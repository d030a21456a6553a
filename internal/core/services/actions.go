package services

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-chat/internal/logger"
)

// Operating system identifiers.
const (
	osDarwin  = "darwin"
	osLinux   = "linux"
	osWindows = "windows"
)

// Ensure ActionService implements the interface.
var _ driving.ActionService = (*ActionService)(nil)

// ActionService copies answers and opens cited documents.
type ActionService struct {
	open func(target string) error
	copy func(text string) error
}

// NewActionService creates an action service using the system clipboard
// and the platform's default opener.
func NewActionService() *ActionService {
	return &ActionService{
		open: openTarget,
		copy: clipboard.WriteAll,
	}
}

// CopyAnswer copies the answer text followed by its cited sources.
func (s *ActionService) CopyAnswer(_ context.Context, answer *domain.Answer) error {
	if answer == nil || answer.Text == "" {
		return fmt.Errorf("%w: no answer to copy", domain.ErrInvalidInput)
	}
	if err := s.copy(FormatAnswer(answer)); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}

// OpenSource opens the document behind a citation.
func (s *ActionService) OpenSource(_ context.Context, source domain.SourceDocument) error {
	return s.openURI(source.URI)
}

// OpenResult opens the document of a search result.
func (s *ActionService) OpenResult(_ context.Context, result *domain.SearchResult) error {
	if result == nil {
		return fmt.Errorf("%w: result is nil", domain.ErrInvalidInput)
	}
	return s.openURI(result.Document.URI)
}

func (s *ActionService) openURI(uri string) error {
	if strings.TrimSpace(uri) == "" {
		return fmt.Errorf("%w: document has no location", domain.ErrInvalidInput)
	}
	target := openableTarget(uri)
	logger.Debug("Opening %s", target)
	if err := s.open(target); err != nil {
		return fmt.Errorf("open %s: %w", target, err)
	}
	return nil
}

// FormatAnswer renders an answer as plain text with a numbered source list.
func FormatAnswer(answer *domain.Answer) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(answer.Text))
	if len(answer.Sources) == 0 {
		return b.String()
	}
	b.WriteString("\n\nSources:\n")
	for _, src := range answer.Sources {
		title := src.Title
		if title == "" {
			title = src.DocumentID
		}
		fmt.Fprintf(&b, "[%d] %s", src.DisplayNumber, title)
		if src.URI != "" {
			fmt.Fprintf(&b, " (%s)", src.URI)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// openTarget opens a URL or path using the system default handler.
func openTarget(target string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case osDarwin:
		cmd = exec.Command("open", target)
	case osLinux:
		cmd = exec.Command("xdg-open", target)
	case osWindows:
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// openableTarget converts indexed document URIs to something the OS can open.
func openableTarget(uri string) string {
	switch {
	case strings.HasPrefix(uri, "github://"):
		return "https://github.com/" + strings.TrimPrefix(uri, "github://")
	case strings.HasPrefix(uri, "file://"):
		return strings.TrimPrefix(uri, "file://")
	default:
		return uri
	}
}
