package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/s22625/jobctl/internal/model"
	"github.com/s22625/jobctl/internal/panel"
)

// View implements tea.Model.
func (d *Dashboard) View() string {
	box := d.styles.FullBox.Width(d.safeWidth())
	switch d.mode {
	case modeStartForm:
		return box.Render(d.viewStartForm())
	case modeAlert:
		return d.viewAlert()
	case modeHelp:
		return box.Render(d.viewHelp())
	default:
		return box.Render(d.viewDashboard())
	}
}

func (d *Dashboard) viewDashboard() string {
	v := d.panel.View()
	width := d.safeWidth()

	lines := []string{
		d.renderHeader(v),
		d.renderControls(v.Controls),
		"",
		d.renderOverall(v),
		"",
		d.styles.Header.Render("Threads"),
	}
	lines = append(lines, d.renderThreads(v.Threads, width)...)
	lines = append(lines, "", d.styles.Header.Render("Log"))

	tail := d.renderNotices(v.Notices, width)
	tail = append(tail, d.renderPollStatus(v))
	if d.message != "" {
		tail = append(tail, d.styles.Faint.Render(truncate(d.message, width)))
	}
	tail = append(tail, "", d.styles.Muted.Render(truncate(d.keymap.HelpLine(), width)))

	logLines := d.safeHeight() - len(lines) - len(tail) - 1
	if logLines < minLogLines {
		logLines = minLogLines
	}
	lines = append(lines, d.renderLog(v.Log, width, logLines)...)
	lines = append(lines, "")
	lines = append(lines, tail...)
	return strings.Join(lines, "\n")
}

func (d *Dashboard) renderHeader(v panel.View) string {
	parts := []string{
		d.styles.Title.Render("JOBCTL"),
		d.styles.Muted.Render(d.server),
		d.styles.StyleState(v.State),
	}
	if v.Timestamp != "" {
		parts = append(parts, d.styles.Muted.Render(v.Timestamp))
	}
	return strings.Join(parts, "  ")
}

func (d *Dashboard) renderControls(c panel.Controls) string {
	start := d.renderControl(d.keymap.Start, "Start", true)
	stop := d.renderControl(d.keymap.Stop, "Stop", c.StopEnabled)
	toggle := d.renderControl(d.keymap.Toggle, c.PauseLabel, c.PauseEnabled)
	clear := d.renderControl(d.keymap.ClearLog, "Clear log", true)
	return strings.Join([]string{start, stop, toggle, clear}, "  ")
}

func (d *Dashboard) renderControl(key, label string, enabled bool) string {
	text := fmt.Sprintf("[%s] %s", key, label)
	if !enabled {
		return d.styles.Dimmed.Render(text)
	}
	return d.styles.Control.Render(text)
}

func (d *Dashboard) renderOverall(v panel.View) string {
	label := d.styles.Header.Render("Overall ")
	if !v.HasOverall {
		return label + d.styles.Muted.Render("no overall progress reported")
	}
	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithoutPercentage(),
		progress.WithWidth(d.barWidth(overallBarWidth)),
	)
	return label + bar.ViewAs(v.Overall.Fraction()) + " " + formatPercent(v.Overall)
}

func (d *Dashboard) renderThreads(threads []model.ThreadStatus, width int) []string {
	if len(threads) == 0 {
		return []string{d.styles.Muted.Render("no thread status reported")}
	}

	labelW := 0
	for _, t := range threads {
		if w := lipgloss.Width(t.Label()); w > labelW {
			labelW = w
		}
	}
	barW := d.barWidth(threadBarWidth)
	if maxLabel := width - barW - 8; labelW > maxLabel {
		labelW = maxLabel
	}

	lines := make([]string, 0, len(threads))
	for _, t := range threads {
		style := d.styles.ThreadStyle(t.Status)
		bar := progress.New(
			progress.WithSolidFill(string(threadColor(t.Status))),
			progress.WithoutPercentage(),
			progress.WithWidth(barW),
		)
		lines = append(lines, fmt.Sprintf("%s %s %s %s",
			style.Render(d.styles.Indicator),
			pad(t.Label(), labelW, d.styles.Normal),
			bar.ViewAs(t.Progress.Fraction()),
			formatPercent(t.Progress),
		))
	}
	return lines
}

func (d *Dashboard) renderLog(log string, width, n int) []string {
	lines := tailLines(log, width, n)
	if len(lines) == 0 {
		return []string{d.styles.Muted.Render("(empty)")}
	}
	return lines
}

func (d *Dashboard) renderNotices(notices []string, width int) []string {
	if len(notices) > maxVisibleNotices {
		notices = notices[len(notices)-maxVisibleNotices:]
	}
	lines := make([]string, 0, len(notices))
	for _, n := range notices {
		lines = append(lines, d.styles.Notice.Render(truncate("! "+n, width)))
	}
	return lines
}

func (d *Dashboard) renderPollStatus(v panel.View) string {
	if v.PollFailures > 0 {
		text := fmt.Sprintf("poll failing (%d): %s", v.PollFailures, v.LastPollError)
		return d.styles.Notice.Render(truncate(text, d.safeWidth()))
	}
	if !v.Polled {
		return d.styles.Muted.Render("waiting for first poll")
	}
	label := fmt.Sprintf("updated %s  every %s", formatRelativeTime(d.lastRefresh, d.now()), d.refreshInterval)
	return d.styles.Muted.Render(label)
}

func (d *Dashboard) viewStartForm() string {
	lines := []string{
		d.styles.Title.Render("START JOB"),
		"",
		d.form.form.View(),
		"",
		d.styles.Muted.Render("[esc] cancel"),
	}
	return strings.Join(lines, "\n")
}

func (d *Dashboard) viewAlert() string {
	text := d.panel.Alert()
	body := strings.Join([]string{
		d.styles.Alert.Render(text),
		"",
		d.styles.Muted.Render("press any key"),
	}, "\n")
	alert := d.styles.AlertBox.Render(body)
	if d.width <= 0 || d.height <= 0 {
		return alert
	}
	return lipgloss.Place(d.width, d.height, lipgloss.Center, lipgloss.Center, alert)
}

func (d *Dashboard) viewHelp() string {
	lines := []string{d.styles.Title.Render("HELP"), ""}
	lines = append(lines, d.keymap.HelpLines()...)
	lines = append(lines, "", d.styles.Muted.Render("press any key to return"))
	return strings.Join(lines, "\n")
}

func (d *Dashboard) barWidth(preferred int) int {
	if w := d.safeWidth() / 3; w < preferred {
		if w < 10 {
			return 10
		}
		return w
	}
	return preferred
}

func (d *Dashboard) safeWidth() int {
	frame := d.styles.FullBox.GetHorizontalFrameSize()
	if d.width > frame {
		return d.width - frame
	}
	return 80
}

func (d *Dashboard) safeHeight() int {
	frame := d.styles.FullBox.GetVerticalFrameSize()
	if d.height > frame {
		return d.height - frame
	}
	return 24
}

func formatPercent(p model.Percent) string {
	return fmt.Sprintf("%3d%%", int(p))
}
