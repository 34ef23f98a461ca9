// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oroclass/spotctl/internal/pricing"
)

const doc = `{"gold":{"price":2488.3,"price_gram_24k":80},"silver":{"price":31.1034768}}`

func typeText(m tea.Model, s string) tea.Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func key(m tea.Model, k tea.KeyType) (tea.Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: k})
}

func TestModel_Calculates(t *testing.T) {
	var m tea.Model = New([]byte(doc), pricing.NewCalculator(), "18k", "EUR")
	assert.Nil(t, m.(Model).Breakdown())
	assert.Contains(t, m.View(), "Inserisci un peso")

	m = typeText(m, "10")
	b := m.(Model).Breakdown()
	require.NotNil(t, b)
	assert.Equal(t, "18k", b.Metal)
	assert.Equal(t, "597.50", b.Total.StringFixed(2))
	assert.Contains(t, m.View(), "EUR 597.50")
}

func TestModel_CommaDecimal(t *testing.T) {
	var m tea.Model = New([]byte(doc), pricing.NewCalculator(), "24k", "EUR")
	m = typeText(m, "2,5")

	b := m.(Model).Breakdown()
	require.NotNil(t, b)
	assert.Equal(t, "199.18", b.Total.StringFixed(2))
}

func TestModel_RejectsLetters(t *testing.T) {
	var m tea.Model = New([]byte(doc), pricing.NewCalculator(), "18k", "EUR")
	m = typeText(m, "1x")

	assert.Nil(t, m.(Model).Breakdown())
	assert.Contains(t, m.View(), `invalid weight "1x"`)
}

func TestModel_CyclesMetals(t *testing.T) {
	var m tea.Model = New([]byte(doc), pricing.NewCalculator(), "ag800", "EUR")
	assert.Equal(t, "ag800", m.(Model).Metal().Code)

	m, _ = key(m, tea.KeyTab)
	assert.Equal(t, "24k", m.(Model).Metal().Code, "wraps around")

	m, _ = key(m, tea.KeyShiftTab)
	assert.Equal(t, "ag800", m.(Model).Metal().Code)

	m = typeText(m, "100")
	b := m.(Model).Breakdown()
	require.NotNil(t, b)
	// 1 * 0.8 - 0.25 = 0.55 per gram.
	assert.Equal(t, "55.00", b.Total.StringFixed(2))
}

func TestModel_SetWeight(t *testing.T) {
	m := New([]byte(doc), pricing.NewCalculator(), "9k", "EUR")
	m.SetWeight("4")

	require.NotNil(t, m.Breakdown())
	assert.Equal(t, "119.00", m.Breakdown().Total.StringFixed(2))
}

func TestModel_MissingQuote(t *testing.T) {
	var m tea.Model = New([]byte(`{"gold":{"price":1}}`), pricing.NewCalculator(), "ag925", "EUR")
	m = typeText(m, "5")

	assert.Nil(t, m.(Model).Breakdown())
	assert.Contains(t, m.View(), "silver missing")
}

func TestModel_Quit(t *testing.T) {
	var m tea.Model = New([]byte(doc), pricing.NewCalculator(), "18k", "EUR")

	m, cmd := key(m, tea.KeyEsc)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}
