package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"relayfaq/internal/document"
	"relayfaq/internal/render"
)

// browseCmd opens the interactive FAQ browser
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the FAQ interactively",
	Long: `Opens a terminal browser over the FAQ: pick a question from the
list and read the rendered answer. Type / to filter questions.`,
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument()
	if err != nil {
		return err
	}
	if len(doc.Entries) == 0 {
		return fmt.Errorf("%s contains no entries", cfg.Document)
	}

	m := newBrowseModel(doc)
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

type browseItem struct {
	entry *document.Entry
}

func (i browseItem) Title() string { return i.entry.Title }
func (i browseItem) Description() string {
	return fmt.Sprintf("%d snippets, %d links", len(i.entry.Snippets), len(i.entry.Links))
}
func (i browseItem) FilterValue() string { return i.entry.Title }

type browseMode int

const (
	modeList browseMode = iota
	modeEntry
)

var browseHelpStyle = lipgloss.NewStyle().Faint(true).Padding(0, 1)

type browseModel struct {
	doc      *document.Document
	list     list.Model
	viewport viewport.Model
	mode     browseMode
	width    int
	height   int
	ready    bool
}

func newBrowseModel(doc *document.Document) *browseModel {
	items := make([]list.Item, len(doc.Entries))
	for i := range doc.Entries {
		items[i] = browseItem{entry: &doc.Entries[i]}
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Relay Integration Troubleshooting FAQ"
	l.SetShowStatusBar(false)

	return &browseModel{doc: doc, list: l}
}

func (m *browseModel) Init() tea.Cmd {
	return nil
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width, msg.Height-1)
		m.viewport = viewport.New(msg.Width, msg.Height-1)
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeList:
			if m.list.FilterState() == list.Filtering {
				break
			}
			switch msg.String() {
			case "q", "esc", "ctrl+c":
				return m, tea.Quit
			case "enter":
				if item, ok := m.list.SelectedItem().(browseItem); ok && m.ready {
					md := render.New(m.width - 2).Entry(m.doc, item.entry)
					m.viewport.SetContent(md)
					m.viewport.GotoTop()
					m.mode = modeEntry
				}
				return m, nil
			}
		case modeEntry:
			switch msg.String() {
			case "q", "esc", "backspace":
				m.mode = modeList
				return m, nil
			case "ctrl+c":
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	if m.mode == modeList {
		m.list, cmd = m.list.Update(msg)
	} else {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m *browseModel) View() string {
	if !m.ready {
		return "loading…"
	}
	switch m.mode {
	case modeEntry:
		return m.viewport.View() + "\n" + browseHelpStyle.Render("↑/↓ scroll · esc back · ctrl+c quit")
	default:
		return m.list.View() + "\n" + browseHelpStyle.Render("enter read · / filter · q quit")
	}
}
