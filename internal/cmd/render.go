package cmd

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/taigrr/colorhash"
)

var categoryPalette = []lipgloss.Color{
	"39", "208", "170", "42", "220", "81", "203", "141", "114", "215",
}

// categoryColor returns a stable terminal colour for a category name, so the
// same category reads the same way across runs and commands.
func categoryColor(name string) lipgloss.Color {
	h := colorhash.HashString(name)
	if h < 0 {
		h = -h
	}
	return categoryPalette[h%len(categoryPalette)]
}

// categoryLabel renders a category name in its colour. Colour is dropped
// automatically when stdout is not a terminal.
func categoryLabel(name string) string {
	return lipgloss.NewStyle().Bold(true).Foreground(categoryColor(name)).Render(name)
}
