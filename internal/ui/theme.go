package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles palette + symbols + box borders.
// ANSI fields serve the one-shot CLI output; Hex fields feed the TUI styles.
type Theme struct {
	Name                                       string
	Title, Muted, Accent, Success, Error       string
	CornerTL, CornerTR, CornerBL, CornerBR     string
	H, V                                       string
	Bullet                                     string
	HexTitle, HexAccent, HexDanger, HexSurface string
	HexText, HexMuted                          string
}

var current Theme

func init() { SetTheme("") }

// SetTheme selects gold (default), neon or mono.
func SetTheme(name string) {
	switch strings.ToLower(name) {
	case "neon":
		disableColor = false
		current = Theme{
			Name:  "neon",
			Title: "\033[95m", // bright magenta
			Muted: fgGray, Accent: "\033[96m",
			Success: fgGreen, Error: fgRed,
			CornerTL: "╭", CornerTR: "╮", CornerBL: "╰", CornerBR: "╯",
			H: "─", V: "│",
			Bullet:   "◆",
			HexTitle: "#ff79c6", HexAccent: "#8be9fd", HexDanger: "#ff5555",
			HexSurface: "#282a36", HexText: "#f8f8f2", HexMuted: "#6272a4",
		}
	case "mono":
		disableColor = true
		current = Theme{
			Name:     "mono",
			CornerTL: "+", CornerTR: "+", CornerBL: "+", CornerBR: "+",
			H: "-", V: "|",
			Bullet: "-",
		}
	default: // gold: the diary's original palette
		disableColor = false
		current = Theme{
			Name:  "gold",
			Title: bold + "\033[38;5;136m", Muted: fgGray, Accent: "\033[38;5;178m",
			Success: fgGreen, Error: "\033[38;5;130m",
			CornerTL: "┌", CornerTR: "┐", CornerBL: "└", CornerBR: "┘",
			H: "─", V: "│",
			Bullet:   "✦",
			HexTitle: "#b8860b", HexAccent: "#d4af37", HexDanger: "#a0522d",
			HexSurface: "#fff8e1", HexText: "#000000", HexMuted: "#967117",
		}
	}
}

// Expose what renderers need
func Current() Theme { return current }

// Color returns a lipgloss colour, or no colour in the mono theme.
func Color(hex string) lipgloss.TerminalColor {
	if hex == "" {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}
