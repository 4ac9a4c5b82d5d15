package tui

import (
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/Makepad-fr/dreams/internal/ui"
)

var (
	mdMu sync.Mutex
	// Renderers are cached by style and wrap width. A fixed style avoids the
	// terminal background query WithAutoStyle performs.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

func markdownStyle() string {
	switch ui.Current().Name {
	case "mono":
		return "notty"
	case "neon":
		return "dracula"
	default:
		return "light"
	}
}

// renderMarkdown renders a dream entry. It falls back to the raw text when
// glamour fails.
func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}

	style := markdownStyle()
	key := style + ":" + strconv.Itoa(width)

	mdMu.Lock()
	defer mdMu.Unlock()
	r := mdRenderers[key]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRenderers[key] = rr
		r = rr
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}
