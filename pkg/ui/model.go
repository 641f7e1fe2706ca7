// Package ui is the terminal front end: a Bubble Tea program that draws the
// animated tree on a character canvas and maps keys onto controller
// commands.
package ui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/canopy/pkg/debug"
	"github.com/vanderheijden86/canopy/pkg/hierarchy"
	"github.com/vanderheijden86/canopy/pkg/layout"
	"github.com/vanderheijden86/canopy/pkg/metrics"
	"github.com/vanderheijden86/canopy/pkg/model"
	"github.com/vanderheijden86/canopy/pkg/watcher"
)

// frameInterval paces animation ticks at roughly 60fps.
const frameInterval = time.Second / 60

// FileChangedMsg is sent when the stored tree changes on disk.
type FileChangedMsg struct{}

type treeLoadedMsg struct {
	root *model.TreeNode
	err  error
}

type tickMsg time.Time

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

func tickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// WatchFileCmd returns a command that waits for a change and sends
// FileChangedMsg. It yields nil once the watcher is closed.
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-w.Changed():
			return FileChangedMsg{}
		case <-w.Done():
			return nil
		}
	}
}

// Option configures a Model.
type Option func(*Model)

// WithLoader sets where the tree is re-read from on FileChangedMsg.
func WithLoader(l hierarchy.Loader) Option {
	return func(m *Model) { m.loader = l }
}

// WithWatcher subscribes the model to external changes.
func WithWatcher(w *watcher.Watcher) Option {
	return func(m *Model) { m.watcher = w }
}

// WithTheme overrides the default theme.
func WithTheme(t Theme) Option {
	return func(m *Model) { m.theme = t }
}

// WithBreadth sets the leaf separation the controller lays out with, so one
// leaf maps to one row.
func WithBreadth(b float64) Option {
	return func(m *Model) {
		if b > 0 {
			m.breadth = b
		}
	}
}

// WithTitle sets the header text.
func WithTitle(s string) Option {
	return func(m *Model) { m.title = s }
}

// Model is the Bubble Tea model of the tree view.
type Model struct {
	ctrl    *hierarchy.Controller
	loader  hierarchy.Loader
	watcher *watcher.Watcher
	theme   Theme
	breadth float64
	title   string

	width, height int
	selected      string

	prompt   *insertPrompt
	showHelp bool
	help     viewport.Model

	ticking  bool
	lastTick time.Time

	statusMsg     string
	statusIsError bool
	quitting      bool
}

// NewModel creates the view for ctrl.
func NewModel(ctrl *hierarchy.Controller, opts ...Option) Model {
	m := Model{
		ctrl:     ctrl,
		theme:    DefaultTheme(lipgloss.DefaultRenderer()),
		breadth:  layout.DefaultBreadth,
		title:    "canopy",
		width:    80,
		height:   24,
		selected: ctrl.Root().ID,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.ticking = ctrl.Animating()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.ticking {
		cmds = append(cmds, tickCmd())
	}
	if m.watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.watcher))
	}
	return tea.Batch(cmds...)
}

// Selected returns the id of the selected node.
func (m Model) Selected() string {
	return m.selected
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.showHelp {
			m.help = newHelpViewport(m.width, m.height-2)
		}
		if m.prompt != nil {
			m.prompt.form = m.prompt.form.WithWidth(max(20, m.width-2))
		}
		return m, nil

	case tickMsg:
		return m.handleTick(time.Time(msg))

	case FileChangedMsg:
		if m.watcher == nil {
			return m, m.loadCmd()
		}
		return m, tea.Batch(m.loadCmd(), WatchFileCmd(m.watcher))

	case treeLoadedMsg:
		m.handleLoaded(msg)
		return m, m.startAnimation()
	}

	// huh.Form needs every remaining message type, not just keys.
	if m.prompt != nil {
		return m.updatePrompt(msg)
	}
	if m.showHelp {
		return m.updateHelp(msg)
	}
	if k, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(k)
	}
	return m, nil
}

func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	if !m.lastTick.IsZero() {
		m.ctrl.Advance(now.Sub(m.lastTick))
	}
	m.lastTick = now
	if m.ctrl.Animating() {
		return m, tickCmd()
	}
	m.ticking = false
	m.lastTick = time.Time{}
	return m, nil
}

// startAnimation begins ticking if a transition is running and no tick is
// already scheduled.
func (m *Model) startAnimation() tea.Cmd {
	if m.ticking || !m.ctrl.Animating() {
		return nil
	}
	m.ticking = true
	m.lastTick = time.Time{}
	return tickCmd()
}

func (m Model) loadCmd() tea.Cmd {
	l := m.loader
	if l == nil {
		return nil
	}
	return func() tea.Msg {
		root, err := l.Load(context.Background())
		return treeLoadedMsg{root: root, err: err}
	}
}

func (m *Model) handleLoaded(msg treeLoadedMsg) {
	if msg.err != nil {
		m.setStatus(fmt.Sprintf("reload failed: %v", msg.err), true)
		return
	}
	if msg.root == nil {
		return
	}
	cur, err1 := model.Marshal(m.ctrl.Root())
	next, err2 := model.Marshal(msg.root)
	if err1 == nil && err2 == nil && bytes.Equal(cur, next) {
		// Our own save coming back through the watcher.
		return
	}
	if err := m.ctrl.Reload(msg.root); err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	debug.Log("reloaded tree from store")
	m.fixSelection()
	m.setStatus("reloaded", false)
}

func (m Model) updatePrompt(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, keys.Close) {
		m.prompt = nil
		m.setStatus("insert cancelled", false)
		return m, nil
	}
	fm, cmd := m.prompt.form.Update(msg)
	if f, ok := fm.(*huh.Form); ok {
		m.prompt.form = f
	}
	switch {
	case m.prompt.done():
		p := m.prompt
		m.prompt = nil
		m.submitInsert(p.parentID, p.name)
		return m, m.startAnimation()
	case m.prompt.aborted():
		m.prompt = nil
		m.setStatus("insert cancelled", false)
		return m, nil
	}
	return m, cmd
}

func (m *Model) submitInsert(parentID, name string) {
	if strings.TrimSpace(name) == "" {
		m.setStatus("nothing inserted", false)
		return
	}
	child, err := m.ctrl.InsertChild(context.Background(), parentID, name)
	if child != nil {
		m.selected = child.ID
	}
	msg := ""
	if child != nil {
		msg = "added " + child.Name
	}
	m.report(err, msg)
}

func (m Model) updateHelp(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(k, keys.Close, keys.Help, keys.Quit) {
			m.showHelp = false
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.help, cmd = m.help.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		m.move(-1)
	case key.Matches(msg, keys.Down):
		m.move(1)
	case key.Matches(msg, keys.Top):
		m.selected = m.ctrl.Root().ID
	case key.Matches(msg, keys.Bottom):
		nodes, _ := m.ctrl.Layout()
		m.selected = nodes[len(nodes)-1].ID
	case key.Matches(msg, keys.Parent):
		if p := model.Parent(m.ctrl.Root(), m.selected); p != nil {
			m.selected = p.ID
		}
	case key.Matches(msg, keys.Child):
		if n := m.ctrl.Find(m.selected); n != nil && len(n.Children) > 0 {
			m.selected = n.Children[0].ID
		}
	case key.Matches(msg, keys.Toggle):
		m.report(m.ctrl.Toggle(ctx, m.selected), "")
	case key.Matches(msg, keys.ExpandAll):
		m.report(m.ctrl.ExpandAll(ctx), "expanded all")
	case key.Matches(msg, keys.CollapseAll):
		m.report(m.ctrl.CollapseAll(ctx), "collapsed all")
	case key.Matches(msg, keys.Insert):
		if n := m.ctrl.Find(m.selected); n != nil {
			m.prompt = newInsertPrompt(n, m.width)
			return m, m.prompt.form.Init()
		}
	case key.Matches(msg, keys.Copy):
		if err := writeClipboard(m.selected); err != nil {
			m.setStatus(fmt.Sprintf("clipboard error: %v", err), true)
		} else {
			m.setStatus("copied "+m.selected, false)
		}
	case key.Matches(msg, keys.Help):
		m.showHelp = true
		m.help = newHelpViewport(m.width, m.height-2)
	}
	return m, m.startAnimation()
}

// move steps the selection through the visible nodes in layout order.
func (m *Model) move(delta int) {
	nodes, _ := m.ctrl.Layout()
	for i, n := range nodes {
		if n.ID == m.selected {
			j := min(max(i+delta, 0), len(nodes)-1)
			m.selected = nodes[j].ID
			return
		}
	}
	m.selected = m.ctrl.Root().ID
}

// fixSelection moves the selection to its nearest visible ancestor.
func (m *Model) fixSelection() {
	nodes, _ := m.ctrl.Layout()
	visible := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		visible[n.ID] = true
	}
	id := m.selected
	for id != "" && !visible[id] {
		p := model.Parent(m.ctrl.Root(), id)
		if p == nil {
			id = ""
			break
		}
		id = p.ID
	}
	if id == "" {
		id = m.ctrl.Root().ID
	}
	m.selected = id
}

// report surfaces the outcome of a command. A failed save is shown but the
// change stays applied.
func (m *Model) report(err error, okMsg string) {
	m.fixSelection()
	switch {
	case err == nil:
		if okMsg != "" {
			m.setStatus(okMsg, false)
		}
	case errors.Is(err, hierarchy.ErrPersistence):
		m.setStatus("not saved: "+err.Error(), true)
	default:
		m.setStatus(err.Error(), true)
	}
}

func (m *Model) setStatus(msg string, isError bool) {
	m.statusMsg = msg
	m.statusIsError = isError
}

// View implements tea.Model.
func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()
	if m.quitting {
		return ""
	}

	bodyH := m.height - 2
	var prompt string
	if m.prompt != nil {
		prompt = m.prompt.form.View()
		bodyH -= lipgloss.Height(prompt)
	}

	var body string
	if m.showHelp {
		body = m.theme.HelpFrame.Render(m.help.View())
	} else {
		body = m.renderCanvas(m.width, max(bodyH, 1)).Render(m.theme)
	}

	parts := []string{m.renderHeader(), body}
	if prompt != "" {
		parts = append(parts, prompt)
	}
	parts = append(parts, m.renderStatus())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderCanvas draws the current frame into a w×h canvas, scrolled so the
// selected node is on screen.
func (m Model) renderCanvas(w, h int) *Canvas {
	nodes, _ := m.ctrl.Layout()
	v := FitViewport(nodes, w, m.breadth)

	rows, sel := 0, 0
	for _, n := range nodes {
		r := v.Row(n.Position)
		rows = max(rows, r+1)
		if n.ID == m.selected {
			sel = r
		}
	}
	if rows > h {
		scroll := min(max(sel-h/2, 0), rows-h)
		v.OffsetY -= float64(scroll)
	}

	c := NewCanvas(w, h)
	c.Draw(m.ctrl.Frame(), v, m.selected, func(id string) (nodeInfo, bool) {
		n := m.ctrl.Find(id)
		if n == nil {
			return nodeInfo{}, false
		}
		return nodeInfo{Name: n.Name, State: n.State()}, true
	})
	return c
}

func (m Model) renderHeader() string {
	root := m.ctrl.Root()
	info := fmt.Sprintf(" %d of %d nodes shown", model.CountVisible(root), model.CountAll(root))
	if m.ctrl.Animating() {
		info += " …"
	}
	title := m.theme.Header.Render(truncateRunesHelper(m.title, max(m.width/2, 8), "…"))
	return title + m.theme.StatusBar.Render(info)
}

func (m Model) renderStatus() string {
	var parts []string
	if n := m.ctrl.Find(m.selected); n != nil {
		parts = append(parts,
			n.Name,
			n.State().String(),
			"weight "+formatWeight(model.SubtreeValue(n)),
		)
	}
	line := truncateRunesHelper(strings.Join(parts, " · "), m.width, "…")
	out := m.theme.StatusBar.Render(line)
	if room := m.width - lipgloss.Width(line) - 2; m.statusMsg != "" && room > 0 {
		style := m.theme.StatusBar
		if m.statusIsError {
			style = m.theme.ErrorText
		}
		out += "  " + style.Render(truncateRunesHelper(m.statusMsg, room, "…"))
	}
	return out
}
