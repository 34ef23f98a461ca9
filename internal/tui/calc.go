// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/apex/log"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/oroclass/spotctl/internal/pricing"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f6be00"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#f6be00")).Padding(0, 1)
	metalStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Padding(0, 1)
	labelStyle    = lipgloss.NewStyle().Width(18).Foreground(lipgloss.Color("#00c8f0"))
	totalStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00d26a"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#f6be00")).Padding(0, 2)
)

// Model is the interactive calculator: pick a metal, type a weight, read the
// payout breakdown.
type Model struct {
	doc      []byte
	calc     pricing.Calculator
	currency string
	metal    int
	weight   textinput.Model
	result   *pricing.Breakdown
	err      error
	quitting bool
}

// New builds the model for the quote document doc, starting on metal code
// (unknown codes fall back to the first preset).
func New(doc []byte, calc pricing.Calculator, metal, currency string) Model {
	ti := textinput.New()
	ti.Placeholder = "10"
	ti.Prompt = "Peso (g) > "
	ti.CharLimit = 10
	ti.Width = 12
	ti.Focus()

	m := Model{
		doc:      doc,
		calc:     calc,
		currency: currency,
		weight:   ti,
	}
	for i, p := range pricing.Metals {
		if p.Code == strings.ToLower(metal) {
			m.metal = i
		}
	}
	return m
}

// SetWeight pre-fills the weight field.
func (m *Model) SetWeight(w string) {
	m.weight.SetValue(w)
	m.recalc()
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "tab", "down":
			m.metal = (m.metal + 1) % len(pricing.Metals)
			m.recalc()
			return m, nil
		case "shift+tab", "up":
			m.metal = (m.metal + len(pricing.Metals) - 1) % len(pricing.Metals)
			m.recalc()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.weight, cmd = m.weight.Update(msg)
	m.recalc()
	return m, cmd
}

// Breakdown is the latest calculation, nil until a valid weight is entered.
func (m Model) Breakdown() *pricing.Breakdown {
	return m.result
}

// Metal is the selected preset.
func (m Model) Metal() pricing.Metal {
	return pricing.Metals[m.metal]
}

func (m *Model) recalc() {
	m.result, m.err = nil, nil

	raw := strings.ReplaceAll(strings.TrimSpace(m.weight.Value()), ",", ".")
	if raw == "" {
		return
	}
	weight, err := decimal.NewFromString(raw)
	if err != nil {
		m.err = fmt.Errorf("invalid weight %q", m.weight.Value())
		return
	}

	metal := pricing.Metals[m.metal]
	spot, err := pricing.SpotPerGram(m.doc, metal.Field)
	if err != nil {
		m.err = err
		return
	}
	b, err := m.calc.Calculate(metal, spot, weight)
	if err != nil {
		m.err = err
		return
	}
	m.result = &b
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Calcolatore oro e argento"))
	b.WriteString("\n\n")

	metals := make([]string, 0, len(pricing.Metals))
	for i, p := range pricing.Metals {
		if i == m.metal {
			metals = append(metals, selectedStyle.Render(p.Code))
		} else {
			metals = append(metals, metalStyle.Render(p.Code))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, metals...))
	b.WriteString("\n\n")
	b.WriteString(m.weight.View())
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errStyle.Render(m.err.Error()))
	case m.result != nil:
		r := m.result
		lines := []string{
			line("Spot", fmt.Sprintf("%s %s /g", m.currency, r.SpotPerGram.StringFixed(2))),
			line("Purezza", fmt.Sprintf("× %s (%s)", r.Purity.StringFixed(3), r.Label)),
			line("Lordo", fmt.Sprintf("%s %s /g", m.currency, r.GrossPerGram.StringFixed(2))),
			line("Spread", fmt.Sprintf("- %s %s /g", m.currency, r.Spread.StringFixed(2))),
			line("Netto", fmt.Sprintf("%s %s /g", m.currency, r.NetPerGram.StringFixed(2))),
			labelStyle.Render("Totale") + totalStyle.Render(fmt.Sprintf("%s %s", m.currency, r.Total.StringFixed(2))),
		}
		b.WriteString(boxStyle.Render(strings.Join(lines, "\n")))
	default:
		b.WriteString(helpStyle.Render("Inserisci un peso in grammi."))
	}

	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("tab/↓ metallo successivo • shift+tab/↑ precedente • esc esci"))
	b.WriteString("\n")
	return b.String()
}

func line(label, value string) string {
	return labelStyle.Render(label) + value
}

// Run starts the calculator on in/out and returns the last breakdown when
// the user leaves.
func Run(m Model, in io.Reader, out io.Writer) (*pricing.Breakdown, error) {
	opts := []tea.ProgramOption{tea.WithOutput(out)}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}

	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return nil, fmt.Errorf("calculator UI failed: %w", err)
	}
	fm, ok := final.(Model)
	if !ok {
		return nil, errors.New("unexpected model type")
	}
	log.Debugf("calculator closed on %s", fm.Metal().Code)
	return fm.Breakdown(), nil
}
