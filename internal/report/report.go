// Package report renders analysis results as text.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"

	"github.com/aristath/crewplan/internal/scheduler"
)

// Writer renders reports to an output stream.
type Writer struct {
	out    io.Writer
	styles styles
}

type styles struct {
	heading  lipgloss.Style
	label    lipgloss.Style
	failure  lipgloss.Style
	critical lipgloss.Style
	border   lipgloss.Style
	header   lipgloss.Style
	cell     lipgloss.Style
}

// New creates a Writer. With color off every style renders as plain text.
func New(out io.Writer, color bool) *Writer {
	r := lipgloss.NewRenderer(out)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}

	return &Writer{
		out: out,
		styles: styles{
			heading:  r.NewStyle().Bold(true),
			label:    r.NewStyle().Foreground(lipgloss.Color("241")),
			failure:  r.NewStyle().Foreground(lipgloss.Color("red")).Bold(true),
			critical: r.NewStyle().Foreground(lipgloss.Color("yellow")).Bold(true),
			border:   r.NewStyle().Foreground(lipgloss.Color("240")),
			header:   r.NewStyle().Bold(true).Padding(0, 1),
			cell:     r.NewStyle().Padding(0, 1),
		},
	}
}

// WriteCycle reports the outcome of cycle detection. The path is closed by
// repeating its first task.
func (w *Writer) WriteCycle(path []int) error {
	if len(path) == 0 {
		_, err := fmt.Fprintln(w.out, "No cycles found.")
		return err
	}
	return w.writeCycleFound(path)
}

// WriteCycleError reports a detected cycle. The path line is omitted when
// the cycle was found without one.
func (w *Writer) WriteCycleError(cycleErr *scheduler.CycleError) error {
	return w.writeCycleFound(cycleErr.Path)
}

func (w *Writer) writeCycleFound(path []int) error {
	if _, err := fmt.Fprintln(w.out, w.styles.failure.Render("Cycle found.")); err != nil {
		return err
	}
	if len(path) == 0 {
		return nil
	}

	ids := make([]string, 0, len(path)+1)
	for _, id := range path {
		ids = append(ids, strconv.Itoa(id))
	}
	ids = append(ids, strconv.Itoa(path[0]))

	_, err := fmt.Fprintln(w.out, strings.Join(ids, ", "))
	return err
}

// WriteTimeline writes one block per simulation record.
func (w *Writer) WriteTimeline(events []scheduler.SimulationEvent) error {
	var b strings.Builder
	for _, ev := range events {
		fmt.Fprintf(&b, "\n%s\n", w.styles.heading.Render(fmt.Sprintf("Time: %d", ev.Time)))
		for _, id := range ev.Finished {
			fmt.Fprintf(&b, "\tFinished: %d\n", id)
		}
		for _, id := range ev.Started {
			fmt.Fprintf(&b, "\tStarting: %d\n", id)
		}
		fmt.Fprintf(&b, "\t%s %d\n", w.styles.label.Render("Current staff:"), ev.StaffTotal)
	}

	_, err := io.WriteString(w.out, b.String())
	return err
}

// WriteSummary writes the shortest execution time and the critical path.
func (w *Writer) WriteSummary(analysis *scheduler.Analysis) error {
	line := fmt.Sprintf("**** Shortest possible project execution is %d ****", analysis.Schedule.TotalDuration)

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n\n", w.styles.heading.Render(line))
	if len(analysis.CriticalPath) > 0 {
		ids := make([]string, len(analysis.CriticalPath))
		for i, id := range analysis.CriticalPath {
			ids[i] = strconv.Itoa(id)
		}
		fmt.Fprintf(&b, "%s %s\n", w.styles.label.Render("Critical path:"), strings.Join(ids, " -> "))
	}
	fmt.Fprintf(&b, "%s %d\n", w.styles.label.Render("Peak staff:"), analysis.PeakStaff)

	_, err := io.WriteString(w.out, b.String())
	return err
}

// WriteFailure reports an analysis error.
func (w *Writer) WriteFailure(err error) error {
	_, werr := fmt.Fprintf(w.out, "\n%s %v\n", w.styles.failure.Render("Error:"), err)
	return werr
}

// SlackHeaders are the slack table columns.
var SlackHeaders = []string{"ID", "Name", "Duration", "Staff", "ES", "LS", "LF", "Slack", "Float", "Critical"}

// SlackRows converts tasks into slack table rows, in the order given.
func SlackRows(tasks []*scheduler.Task) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, task := range tasks {
		marker := ""
		if task.Critical {
			marker = "*"
		}
		rows = append(rows, []string{
			strconv.Itoa(task.ID),
			task.Name,
			strconv.Itoa(task.Duration),
			strconv.Itoa(task.Staff),
			strconv.Itoa(task.EarliestStart),
			strconv.Itoa(task.LatestStart),
			strconv.Itoa(task.LatestFinish),
			strconv.Itoa(task.Slack),
			strconv.Itoa(task.TotalSlack),
			marker,
		})
	}
	return rows
}

// WriteSlackTable writes the per-task slack table.
func (w *Writer) WriteSlackTable(tasks []*scheduler.Task) error {
	criticalRows := make(map[int]bool)
	for i, task := range tasks {
		criticalRows[i] = task.Critical
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(w.styles.border).
		Headers(SlackHeaders...).
		Rows(SlackRows(tasks)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return w.styles.header
			case criticalRows[row]:
				return w.styles.critical.Padding(0, 1)
			default:
				return w.styles.cell
			}
		})

	_, err := fmt.Fprintln(w.out, t.String())
	return err
}
