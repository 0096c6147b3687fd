package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/muesli/termenv"
)

// Transcript prints turn results for the interactive chat.
type Transcript struct {
	out     io.Writer
	render  func(string) (string, error)
	profile termenv.Profile
	verbose bool
}

// NewTranscript writes to out. A nil render prints messages verbatim.
func NewTranscript(out io.Writer, render func(string) (string, error), verbose bool) *Transcript {
	return &Transcript{out: out, render: render, profile: termenv.ColorProfile(), verbose: verbose}
}

// Print writes the messages of res and, in verbose mode, its activity log.
func (t *Transcript) Print(res *domain.TurnResult) {
	if t.verbose {
		for _, e := range res.Events {
			t.event(e)
		}
	}
	for _, m := range res.Messages {
		name := termenv.String(m.Handler).Bold().Foreground(t.profile.Color("#a78bfa"))
		fmt.Fprintf(t.out, "%s\n", name)
		if m.Content == domain.SeatMapSentinel {
			fmt.Fprint(t.out, SeatMap())
			continue
		}
		text := m.Content + "\n"
		if t.render != nil {
			if out, err := t.render(m.Content); err == nil {
				text = out
			}
		}
		fmt.Fprint(t.out, text)
	}
	if res.Failed {
		fmt.Fprintln(t.out, termenv.String("(the turn failed and was not saved)").Faint())
	}
}

func (t *Transcript) event(e domain.Event) {
	line := fmt.Sprintf("  · %-14s %s", e.Type, e.Content)
	if e.Type == domain.EventContextUpdate {
		line = fmt.Sprintf("  · %-14s %v", e.Type, e.Metadata["changes"])
	}
	fmt.Fprintln(t.out, termenv.String(line).Faint())
}

// SeatMap renders a small interactive-style cabin layout for the seat map sentinel.
func SeatMap() string {
	var sb strings.Builder
	sb.WriteString("      A B C   D E F\n")
	for row := 1; row <= 10; row++ {
		fmt.Fprintf(&sb, "  %2d  □ □ □   □ □ □\n", row)
	}
	sb.WriteString("  Reply with a seat, for example 14C.\n")
	return sb.String()
}
