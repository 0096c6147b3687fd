package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the switchboard banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{`  ___        _ _      _    _                      _ `, "#818cf8"},
		{` / __|_ __ _(_) |_ __| |_ | |__  ___  __ _ _ _ __| |`, "#a78bfa"},
		{` \__ \ V  V / |  _/ _| ' \| '_ \/ _ \/ _' | '_/ _' |`, "#c084fc"},
		{` |___/\_/\_/|_|\__\__|_||_|_.__/\___/\__,_|_| \__,_|`, "#e879f9"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  airline customer service · "+version).Faint())
	fmt.Fprintln(w)
}
