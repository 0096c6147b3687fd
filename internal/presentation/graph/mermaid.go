package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/switchboard/pkg/registry"
)

// Overlay contains conversation state to visualize on the graph.
type Overlay struct {
	Visited []string // handlers that spoke in the conversation
	Current string
}

// GenerateMermaid produces a Mermaid flowchart of the transfer topology.
// It applies semantic styling:
// - Triage: ((Circle))
// - Handler with tools: [[Subroutine]]
// - Default: [Rectangle]
// Edges are labelled with the transfer tool; edges running a setup routine
// are drawn dotted. Overlay styles are applied if provided.
func GenerateMermaid(reg *registry.Registry, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, h := range reg.List() {
		safeID := sanitizeMermaidID(h.Name)

		opener, closer := "[", "]"
		switch {
		case h.Name == reg.Triage():
			opener, closer = "((", "))"
		case len(h.Tools) > 0:
			opener, closer = "[[", "]]"
		}
		label := escape(h.Name)
		if len(h.Filters) > 0 {
			label += " <br/> 🛡️ " + escape(strings.Join(h.Filters, ", "))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		for _, edge := range reg.Edges(h.Name) {
			arrow := fmt.Sprintf("-- \"%s\" -->", escape(edge.Tool()))
			if edge.Setup != nil {
				arrow = fmt.Sprintf("-. \"%s\" .->", escape(edge.Tool()))
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, sanitizeMermaidID(edge.To))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.Visited {
			safeID := sanitizeMermaidID(name)
			if safeID == "" || seen[safeID] || !reg.Has(name) {
				continue
			}
			seen[safeID] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.Current))
		}
	}

	return sb.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '-', '/', '\\', ' ':
			return '_'
		}
		return r
	}, id)
}
