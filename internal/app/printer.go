package app

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/filesentry/internal/core/domain"
	"go.trai.ch/filesentry/internal/ui/output"
	"go.trai.ch/filesentry/internal/ui/style"
)

// Printer writes settled batches to the terminal.
type Printer struct {
	out  *termenv.Output
	enc  *json.Encoder
	base string
}

// jsonEvent is one line of --json output.
type jsonEvent struct {
	Scope domain.ScopeID   `json:"scope"`
	Root  string           `json:"root"`
	Path  string           `json:"path"`
	Kind  domain.EventKind `json:"kind"`
}

// NewPrinter creates a Printer writing to w. With asJSON every event is
// written as one JSON object per line; otherwise paths are shown relative to
// the working directory with a kind marker, colored when w is a terminal.
func NewPrinter(w io.Writer, asJSON bool) *Printer {
	p := &Printer{}
	if asJSON {
		p.enc = json.NewEncoder(w)
		return p
	}
	if output.IsTerminal(w) {
		p.out = output.New(w)
	} else {
		p.out = termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))
	}
	if wd, err := os.Getwd(); err == nil {
		p.base = wd
	}
	return p
}

// Print writes every event of batch.
func (p *Printer) Print(batch domain.Batch) error {
	for _, ev := range batch.Events {
		if p.enc != nil {
			if err := p.enc.Encode(jsonEvent{
				Scope: batch.Scope,
				Root:  batch.Root,
				Path:  ev.Path,
				Kind:  ev.Kind,
			}); err != nil {
				return err
			}
			continue
		}

		icon, color := style.EventIcon(ev.Kind)
		marker := p.out.String(icon).Foreground(p.out.Color(string(color))).String()
		if _, err := p.out.WriteString(marker + " " + p.display(ev.Path) + "\n"); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) display(path string) string {
	if p.base == "" {
		return path
	}
	rel, err := filepath.Rel(p.base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
