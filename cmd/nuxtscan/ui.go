// # cmd/nuxtscan/ui.go
package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"nuxtscan/internal/output"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	vulnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	deadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	list       list.Model
	findings   []output.Finding
	lastUpdate time.Time
	unitCount  int
	duration   time.Duration
}

type updateMsg struct {
	findings  []output.Finding
	unitCount int
	duration  time.Duration
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case updateMsg:
		m.findings = msg.findings
		m.unitCount = msg.unitCount
		m.duration = msg.duration
		m.lastUpdate = time.Now()

		items := make([]list.Item, 0, len(m.findings))
		for _, f := range m.findings {
			location := f.File
			if f.Line > 0 {
				location = fmt.Sprintf("%s:%d", f.File, f.Line)
			}
			items = append(items, item{
				title: fmt.Sprintf("%s (%s)", f.Category, f.Severity),
				desc:  fmt.Sprintf("%s — %s", location, f.Description),
			})
		}
		m.list.SetItems(items)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last scan: %v | %d units | %v",
		m.lastUpdate.Format("15:04:05"), m.unitCount, m.duration.Round(time.Millisecond)))

	var summary string
	if len(m.findings) == 0 {
		summary = successStyle.Render("✅ Project Clean")
	} else {
		severities := output.CountBySeverity(m.findings)
		risky := severities[output.SeverityCritical] + severities[output.SeverityHigh] + severities[output.SeverityMedium]
		dead := severities[output.SeverityUnused] + severities[output.SeverityPossiblyUnused]
		summary = fmt.Sprintf("⚠️  %s | %s",
			vulnStyle.Render(fmt.Sprintf("%d Risky", risky)),
			deadStyle.Render(fmt.Sprintf("%d Dead", dead)))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Dead Code & Vulnerability Monitor"), status, summary)
	return docStyle.Render(header + "\n" + m.list.View())
}

func initialModel() model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Findings"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		list:       l,
		lastUpdate: time.Now(),
	}
}
