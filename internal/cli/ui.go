package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/zinefold/pkg/pipeline"
)

// ===== Palette =====

var (
	colorAccent = lipgloss.Color("36")
	colorOK     = lipgloss.Color("35")
	colorWarn   = lipgloss.Color("220")
	colorFail   = lipgloss.Color("167")
	colorLink   = lipgloss.Color("75")
	colorText   = lipgloss.Color("255")
	colorLabel  = lipgloss.Color("245")
	colorMuted  = lipgloss.Color("240")
)

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	StyleLink    = lipgloss.NewStyle().Foreground(colorLink).Underline(true)
	StyleDim     = lipgloss.NewStyle().Foreground(colorMuted)
	StyleValue   = lipgloss.NewStyle().Foreground(colorText)
	StyleWarning = lipgloss.NewStyle().Foreground(colorWarn)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorAccent)
	styleCommand     = lipgloss.NewStyle().Foreground(colorLink)
	styleLabel       = lipgloss.NewStyle().Foreground(colorLabel).Width(12)
)

// status line glyphs
var (
	glyphOK   = lipgloss.NewStyle().Foreground(colorOK).Render("✓")
	glyphFail = lipgloss.NewStyle().Foreground(colorFail).Render("✗")
	glyphWarn = lipgloss.NewStyle().Foreground(colorWarn).Render("!")
	glyphInfo = lipgloss.NewStyle().Foreground(colorLabel).Render("›")
	glyphTo   = StyleDim.Render("→")
)

// ===== Status lines =====

func printSuccess(format string, args ...any) {
	fmt.Println(glyphOK, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(glyphFail, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(glyphWarn, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(glyphInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented, muted line under a status line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// ===== Outputs =====

func printFile(path string) {
	fmt.Println(" ", glyphTo, StyleValue.Render(path))
}

func printURL(url string) {
	fmt.Println(" ", glyphTo, StyleLink.Render(url))
}

func printKeyValue(key, value string) {
	fmt.Println(styleLabel.Render(key), StyleValue.Render(value))
}

func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":"), styleCommand.Render(cmd))
}

// printRunStats prints a one-line summary of a run, ending with whether
// every measurement came from the cache.
func printRunStats(res *pipeline.Result) {
	parts := []string{
		fmt.Sprintf("%d images", res.Stats.Images),
		fmt.Sprintf("%d pages", res.Stats.Pages),
		fmt.Sprintf("%d sheets", res.Stats.Sheets),
		fmt.Sprintf("%dx%d grid", res.Layout.Columns, res.Layout.Rows),
	}
	if res.Stats.Padded > 0 {
		parts = append(parts, fmt.Sprintf("%d blank", res.Stats.Padded))
	}

	sep := StyleDim.Render(" · ")
	for i, p := range parts {
		parts[i] = StyleDim.Render(p)
	}
	fmt.Println("  " + strings.Join(parts, sep) + sep + cacheStatus(res.CacheInfo))
}

func cacheStatus(info pipeline.CacheInfo) string {
	total := info.MeasureHits + info.MeasureMisses
	if total > 0 && info.MeasureHits == total {
		return lipgloss.NewStyle().Foreground(colorOK).Render("cached")
	}
	return lipgloss.NewStyle().Foreground(colorLabel).Render("fresh")
}
