// Package console renders reconciliation results for a terminal.
package console

import (
	"github.com/adplan/backend/internal/domain/reconcile"
	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	colorPrimary = lipgloss.Color("#2196F3")
	colorMuted   = lipgloss.Color("#8a8f98")
	colorSuccess = lipgloss.Color("#8BC34A")
	colorWarning = lipgloss.Color("#FFC107")
	colorError   = lipgloss.Color("#e53935")
)

// Styles groups the styles a Renderer uses
type Styles struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Header  lipgloss.Style
	Cell    lipgloss.Style
	Border  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// DefaultStyles returns the built-in styles
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Foreground(colorPrimary).Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(colorMuted),
		Header:  lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Cell:    lipgloss.NewStyle().Padding(0, 1),
		Border:  lipgloss.NewStyle().Foreground(colorMuted),
		Success: lipgloss.NewStyle().Foreground(colorSuccess),
		Warning: lipgloss.NewStyle().Foreground(colorWarning),
		Error:   lipgloss.NewStyle().Foreground(colorError).Bold(true),
	}
}

// PlainStyles returns styles that add no color or padding escapes
func PlainStyles() Styles {
	s := lipgloss.NewStyle()
	return Styles{Title: s, Muted: s, Header: s, Cell: s, Border: s, Success: s, Warning: s, Error: s}
}

// outcome returns the style of an outcome label
func (s Styles) outcome(o reconcile.Outcome) lipgloss.Style {
	switch o {
	case reconcile.OutcomeCreated, reconcile.OutcomeLinked:
		return s.Success
	case reconcile.OutcomeUnresolved:
		return s.Warning
	case reconcile.OutcomeFailed:
		return s.Error
	default:
		return s.Muted
	}
}
