package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
)

// Run starts the full-screen diary and blocks until the user quits or ctx
// is done.
func Run(ctx context.Context, d Diary) error {
	ctx, cancel := context.WithCancel(ctx)
	// Stops the changefeed and any call still in flight.
	defer cancel()

	p := tea.NewProgram(New(ctx, d), tea.WithAltScreen(), tea.WithContext(ctx))
	log.Debug().Msg("starting tui")
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
