package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"golang.org/x/term"
)

var (
	colorUser      = lipgloss.Color("#74c7ec")
	colorAssistant = lipgloss.Color("#a6e3a1")
	colorMuted     = lipgloss.Color("#a6adc8")
	colorWarn      = lipgloss.Color("#fab387")
	colorError     = lipgloss.Color("#f38ba8")

	userStyle      = lipgloss.NewStyle().Foreground(colorUser).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(colorAssistant).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	warnStyle      = lipgloss.NewStyle().Foreground(colorWarn)
	errorStyle     = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	titleStyle     = lipgloss.NewStyle().Foreground(colorUser).Bold(true).Underline(true)
)

const defaultWidth = 80

// terminalWidth is a test seam for the stdout width lookup.
var terminalWidth = func() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

func renderMessage(m models.Message) string {
	var label string
	switch m.Role {
	case models.RoleUser:
		label = userStyle.Render("你")
	case models.RoleAssistant:
		label = assistantStyle.Render("助手")
	default:
		label = mutedStyle.Render(string(m.Role))
	}
	body := m.Content
	if m.Loading {
		body = mutedStyle.Render(body)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", label, mutedStyle.Render(m.CreatedAt.Local().Format("15:04")), body)
	if len(m.Attachments) > 0 {
		fmt.Fprintf(&b, "\n  %s", mutedStyle.Render("📎 "+strings.Join(m.Attachments, ", ")))
	}
	return b.String()
}

func renderWarning(msg string) string {
	return warnStyle.Render("! " + msg)
}

func renderError(msg string) string {
	return errorStyle.Render("✗ " + msg)
}

// renderProgress draws one task as "name [#####     ]  42%" sized to width.
func renderProgress(t models.UploadTask, width int) string {
	var suffix string
	switch t.State {
	case models.TaskFailed:
		suffix = errorStyle.Render(" 失败")
		if t.Err != "" {
			suffix += " " + mutedStyle.Render(t.Err)
		}
	case models.TaskSucceeded:
		suffix = assistantStyle.Render(" 完成")
	default:
		suffix = fmt.Sprintf(" %3d%%", t.Progress)
	}

	const nameWidth = 24
	name := fitWidth(t.Name, nameWidth)

	barWidth := width - nameWidth - 16
	if barWidth < 10 {
		barWidth = 10
	}
	if barWidth > 40 {
		barWidth = 40
	}
	p := t.Progress
	if p < 0 {
		p = 0
	}
	filled := barWidth * p / 100
	bar := strings.Repeat("#", filled) + strings.Repeat(" ", barWidth-filled)
	return fmt.Sprintf("%s [%s]%s", name, bar, suffix)
}

// fitWidth truncates or pads s to exactly w terminal cells.
func fitWidth(s string, w int) string {
	if lipgloss.Width(s) > w {
		r := []rune(s)
		for len(r) > 0 && lipgloss.Width(string(r))+1 > w {
			r = r[:len(r)-1]
		}
		s = string(r) + "…"
	}
	return s + strings.Repeat(" ", max(0, w-lipgloss.Width(s)))
}

// progressPrinter prints a task line when it reaches a new quarter or a
// terminal state. It is safe for concurrent use.
type progressPrinter struct {
	out func() io.Writer

	mu   sync.Mutex
	last map[string]int
}

func newProgressPrinter(out func() io.Writer) *progressPrinter {
	return &progressPrinter{out: out, last: map[string]int{}}
}

func (p *progressPrinter) observe(t models.UploadTask) {
	step := t.Progress / 25
	if t.Terminal() {
		step = 100
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if prev, ok := p.last[t.ID]; ok && prev >= step {
		return
	}
	p.last[t.ID] = step
	fmt.Fprintln(p.out(), renderProgress(t, terminalWidth()))
}
