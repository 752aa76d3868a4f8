package tui

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/julianstephens/soberlit/internal/errors"
	"github.com/julianstephens/soberlit/internal/escalation"
	"github.com/julianstephens/soberlit/internal/logger"
)

// Prompt runs the check-in screen on the controlling terminal.
type Prompt struct {
	status func(ctx context.Context) (Status, error)
	isTTY  func() bool
}

func NewPrompt(status func(ctx context.Context) (Status, error)) *Prompt {
	return &Prompt{status: status, isTTY: stdioIsTerminal}
}

func stdioIsTerminal() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

func (p *Prompt) Available() bool {
	return p.isTTY()
}

func (p *Prompt) Run(ctx context.Context, hooks escalation.PromptHooks) (escalation.Resolution, error) {
	if !p.Available() {
		return "", errors.ErrNoDisplay
	}

	var status Status
	if p.status != nil {
		s, err := p.status(ctx)
		if err != nil {
			logger.Warn("Could not load ledger for the check-in prompt", "error", err)
		}
		status = s
	}

	prog := tea.NewProgram(NewModel(status, hooks), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := prog.Run()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrNoDisplay, err)
	}

	m, ok := final.(Model)
	if !ok || m.Result() == "" {
		return "", fmt.Errorf("check-in prompt closed without an answer")
	}
	return m.Result(), nil
}
