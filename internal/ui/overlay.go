package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// placeOverlay draws fg on top of bg with its top-left corner at column x, row y.
// Both may contain ANSI sequences; widths are measured in cells.
func placeOverlay(x, y int, fg, bg string) string {
	bgLines := strings.Split(bg, "\n")
	fgLines := strings.Split(fg, "\n")

	for len(bgLines) < y+len(fgLines) {
		bgLines = append(bgLines, "")
	}

	for i, fgLine := range fgLines {
		row := y + i
		line := bgLines[row]
		if w := ansi.StringWidth(line); w < x {
			line += strings.Repeat(" ", x-w)
		}

		left := ansi.Truncate(line, x, "")
		right := ansi.TruncateLeft(line, x+ansi.StringWidth(fgLine), "")
		bgLines[row] = left + fgLine + "\x1b[0m" + right
	}

	return strings.Join(bgLines, "\n")
}
