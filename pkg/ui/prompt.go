package ui

import (
	"github.com/charmbracelet/huh"

	"github.com/vanderheijden86/canopy/pkg/model"
)

// insertPrompt asks for the name of a new child. It lives behind a pointer
// so the form's value binding survives Model copies.
type insertPrompt struct {
	form     *huh.Form
	parentID string
	name     string
}

func newInsertPrompt(parent *model.TreeNode, width int) *insertPrompt {
	p := &insertPrompt{parentID: parent.ID}
	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("New child of " + parent.Name).
				Placeholder("name").
				CharLimit(120).
				Value(&p.name),
		),
	).WithTheme(huh.ThemeDracula()).
		WithShowHelp(false).
		WithWidth(max(20, width-2))
	return p
}

func (p *insertPrompt) done() bool {
	return p.form.State == huh.StateCompleted
}

func (p *insertPrompt) aborted() bool {
	return p.form.State == huh.StateAborted
}
