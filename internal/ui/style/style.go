// Package style provides the shared colors and icons of the CLI.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/filesentry/internal/core/domain"
)

// Brand Colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Mist   = lipgloss.Color("#98A2B3")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Plus    = "+"
	Minus   = "-"
	Tilde   = "~"
	Circle  = "○"
)

// EventIcon returns the icon and color used to print an event kind.
func EventIcon(kind domain.EventKind) (string, lipgloss.Color) {
	switch kind {
	case domain.EventCreated:
		return Plus, Green
	case domain.EventModified:
		return Tilde, Yellow
	case domain.EventDeleted:
		return Minus, Red
	default:
		return Circle, Slate
	}
}
