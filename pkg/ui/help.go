package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
)

func helpMarkdown() string {
	var sb strings.Builder
	sb.WriteString("# canopy\n\n")
	sb.WriteString("Browse a hierarchy as a collapsible tree. Every change is saved immediately.\n\n")
	sb.WriteString("| Key | Action |\n|---|---|\n")
	for _, b := range keys.bindings() {
		h := b.Help()
		fmt.Fprintf(&sb, "| `%s` | %s |\n", h.Key, h.Desc)
	}
	sb.WriteString("\n## Nodes\n\n")
	sb.WriteString("- `○` leaf\n- `●` expanded, children shown\n- `◉` collapsed, children hidden\n\n")
	sb.WriteString("The status line shows the selected node, its state and the total weight of its leaves. ")
	sb.WriteString("A failed save is reported there; the change stays on screen.\n")
	return sb.String()
}

// renderHelp renders the help text for the given width, falling back to the
// raw markdown when glamour fails.
func renderHelp(width int) string {
	md := helpMarkdown()
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(20, width-4)),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func newHelpViewport(width, height int) viewport.Model {
	vp := viewport.New(max(10, width-4), max(3, height-2))
	vp.SetContent(renderHelp(width - 4))
	return vp
}
