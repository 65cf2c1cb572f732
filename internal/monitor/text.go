package monitor

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

func pad(s string, width int, style lipgloss.Style) string {
	return style.Width(width).Render(truncate(s, width))
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 3 {
		return truncateToWidth(s, width)
	}
	return truncateToWidth(s, width-3) + "..."
}

func truncateToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	var b strings.Builder
	current := 0
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if current+rw > width {
			break
		}
		b.WriteRune(r)
		current += rw
	}
	return b.String()
}

// wrapText breaks s into lines no wider than width, preferring spaces.
func wrapText(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}
	var lines []string
	for _, raw := range strings.Split(s, "\n") {
		raw = strings.TrimRight(raw, "\r")
		if runewidth.StringWidth(raw) <= width {
			lines = append(lines, raw)
			continue
		}
		runes := []rune(raw)
		for len(runes) > 0 {
			cur, lastSpace, end := 0, -1, 0
			for ; end < len(runes); end++ {
				rw := runewidth.RuneWidth(runes[end])
				if cur+rw > width {
					break
				}
				cur += rw
				if unicode.IsSpace(runes[end]) {
					lastSpace = end
				}
			}
			if end == len(runes) {
				lines = append(lines, string(runes))
				break
			}
			split := end
			if lastSpace > 0 {
				split = lastSpace
			}
			if split == 0 {
				split = 1
			}
			lines = append(lines, strings.TrimRightFunc(string(runes[:split]), unicode.IsSpace))
			runes = []rune(strings.TrimLeftFunc(string(runes[split:]), unicode.IsSpace))
		}
	}
	return lines
}

// tailLines returns the last n wrapped lines of the log.
func tailLines(log string, width, n int) []string {
	log = strings.TrimRight(log, "\n")
	if log == "" || n <= 0 {
		return nil
	}
	lines := wrapText(log, width)
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

func formatRelativeTime(when time.Time, now time.Time) string {
	if when.After(now) {
		return "just now"
	}

	elapsed := now.Sub(when)
	switch {
	case elapsed < time.Second:
		return "just now"
	case elapsed < time.Minute:
		return fmt.Sprintf("%ds ago", int(elapsed.Seconds()))
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	}
}
