package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the client until the user quits or ctx is done. relay must be the
// observer the session was created with.
func Run(ctx context.Context, session Session, relay *Relay) error {
	p := tea.NewProgram(
		NewModel(ctx, session),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)

	relay.Attach(p)
	defer relay.Close()

	_, err := p.Run()
	return err
}
