//go:build gui

package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// panelTheme is the dark palette of the settings window. Accents reuse the
// meter colours so the slider matches the cells it moves.
type panelTheme struct {
	fyne.Theme
}

func newPanelTheme() fyne.Theme {
	return &panelTheme{Theme: theme.DefaultTheme()}
}

func (p *panelTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return color.RGBA{18, 18, 18, 255}
	case theme.ColorNameForeground:
		return color.RGBA{200, 200, 200, 255}
	case theme.ColorNamePrimary, theme.ColorNameFocus:
		return cellColors[1]
	case theme.ColorNameWarning:
		return cellColors[2]
	case theme.ColorNameError:
		return cellColors[3]
	}
	return p.Theme.Color(name, theme.VariantDark)
}
