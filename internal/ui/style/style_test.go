package style_test

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/filesentry/internal/core/domain"
	"go.trai.ch/filesentry/internal/ui/style"
)

func TestEventIcon(t *testing.T) {
	tests := []struct {
		kind  domain.EventKind
		icon  string
		color lipgloss.Color
	}{
		{domain.EventCreated, style.Plus, style.Green},
		{domain.EventModified, style.Tilde, style.Yellow},
		{domain.EventDeleted, style.Minus, style.Red},
		{domain.EventNone, style.Circle, style.Slate},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			icon, color := style.EventIcon(tt.kind)
			assert.Equal(t, tt.icon, icon)
			assert.Equal(t, tt.color, color)
		})
	}
}
