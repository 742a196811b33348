package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	reconcileapp "github.com/adplan/backend/internal/application/reconcile"
	"github.com/adplan/backend/internal/domain/reconcile"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Renderer writes reports to w
type Renderer struct {
	w       io.Writer
	styles  Styles
	verbose bool
}

// Option configures a Renderer
type Option func(*Renderer)

// WithStyles replaces the default styles
func WithStyles(s Styles) Option {
	return func(r *Renderer) { r.styles = s }
}

// WithVerbose lists every changed or broken item, not only the tallies
func WithVerbose(v bool) Option {
	return func(r *Renderer) { r.verbose = v }
}

// NewRenderer creates a renderer writing to w
func NewRenderer(w io.Writer, opts ...Option) *Renderer {
	r := &Renderer{w: w, styles: DefaultStyles()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report renders a backfill report: one tally row per step, then the items
// that changed or broke when verbose, then the totals.
func (r *Renderer) Report(rep *reconcileapp.Report) error {
	title := "Backfill " + rep.RunID.String()
	if rep.DryRun {
		title += " (dry run)"
	}

	headers := []string{"step"}
	for _, o := range reconcile.Outcomes() {
		headers = append(headers, string(o))
	}
	rows := make([][]string, 0, len(rep.Steps)+1)
	for _, s := range rep.Steps {
		rows = append(rows, tallyRow(string(s.Step), s.Counts))
	}
	rows = append(rows, tallyRow("total", rep.Totals()))

	var sb strings.Builder
	sb.WriteString(r.styles.Title.Render(title) + "\n")
	sb.WriteString(r.styles.Muted.Render(fmt.Sprintf("%s, %s",
		rep.StartedAt.Format(time.RFC3339), rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond))) + "\n")
	sb.WriteString(r.table(headers, rows).String() + "\n")

	if r.verbose {
		var items [][]string
		for _, s := range rep.Steps {
			for _, it := range s.Items {
				items = append(items, []string{string(it.Step), it.Item, r.styles.outcome(it.Outcome).Render(string(it.Outcome)), it.Detail})
			}
		}
		if len(items) > 0 {
			sb.WriteString(r.table([]string{"step", "item", "outcome", "detail"}, items).String() + "\n")
		}
	}

	if rep.HasFailures() {
		sb.WriteString(r.styles.Error.Render(fmt.Sprintf("%d item(s) failed", rep.Totals()[reconcile.OutcomeFailed])) + "\n")
	}
	return r.write(sb.String())
}

// Diagnosis renders the issues grouped by kind, or a single line when healthy
func (r *Renderer) Diagnosis(d *reconcileapp.Diagnosis) error {
	var sb strings.Builder
	sb.WriteString(r.styles.Title.Render("Diagnosis "+d.CheckedAt.Format(time.RFC3339)) + "\n")
	if d.Healthy() {
		sb.WriteString(r.styles.Success.Render("no broken links") + "\n")
		return r.write(sb.String())
	}

	var summary [][]string
	for _, kind := range reconcileapp.IssueKinds() {
		if n := d.Count(kind); n > 0 {
			summary = append(summary, []string{string(kind), strconv.Itoa(n)})
		}
	}
	sb.WriteString(r.table([]string{"issue", "count"}, summary).String() + "\n")

	if r.verbose {
		rows := make([][]string, 0, len(d.Issues))
		for _, kind := range reconcileapp.IssueKinds() {
			for _, i := range d.OfKind(kind) {
				rows = append(rows, []string{string(i.Kind), fmt.Sprintf("%s %d", i.Entity, i.ID), i.Detail})
			}
		}
		sb.WriteString(r.table([]string{"issue", "entity", "detail"}, rows).String() + "\n")
	}
	sb.WriteString(r.styles.Warning.Render(fmt.Sprintf("%d issue(s)", len(d.Issues))) + "\n")
	return r.write(sb.String())
}

// Classifications renders the heuristic's verdict per support
func (r *Renderer) Classifications(cs []reconcileapp.Classification) error {
	rows := make([][]string, 0, len(cs))
	changes := 0
	for _, c := range cs {
		current := "-"
		if c.Support.HasMedia() {
			current = strconv.FormatInt(*c.Support.MediaID, 10)
		}
		resolved, rule := "-", "-"
		if c.Err != nil {
			rule = r.styles.Warning.Render(c.Err.Error())
		} else {
			resolved = fmt.Sprintf("%d %s", c.Resolution.Media.ID, c.Resolution.Media.Name)
			rule = c.Resolution.Rule
		}
		mark := ""
		if c.Changes() {
			mark = r.styles.Success.Render("*")
			changes++
		}
		rows = append(rows, []string{strconv.FormatInt(c.Support.ID, 10), c.Support.Label(), c.Resolution.Normalized, current, resolved, rule, mark})
	}

	var sb strings.Builder
	sb.WriteString(r.styles.Title.Render("Support classification") + "\n")
	sb.WriteString(r.table([]string{"id", "support", "normalized", "media", "resolved", "rule", ""}, rows).String() + "\n")
	sb.WriteString(r.styles.Muted.Render(fmt.Sprintf("%d of %d support(s) would change", changes, len(cs))) + "\n")
	return r.write(sb.String())
}

// Runs renders the run history, most recent first
func (r *Renderer) Runs(runs []reconcile.Run) error {
	if len(runs) == 0 {
		return r.write(r.styles.Muted.Render("no runs recorded") + "\n")
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID.String()[:8],
			run.StartedAt.Format(time.RFC3339),
			run.Duration().Round(time.Millisecond).String(),
			strconv.Itoa(run.Created),
			strconv.Itoa(run.Linked),
			strconv.Itoa(run.Unresolved),
			strconv.Itoa(run.Failed),
			run.Summary,
		})
	}
	t := r.table([]string{"run", "started", "took", "created", "linked", "unresolved", "failed", "summary"}, rows)
	return r.write(r.styles.Title.Render("Recent runs") + "\n" + t.String() + "\n")
}

func (r *Renderer) table(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.styles.Border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.styles.Header
			}
			return r.styles.Cell
		})
}

func (r *Renderer) write(s string) error {
	_, err := io.WriteString(r.w, s)
	return err
}

func tallyRow(label string, t reconcileapp.Tally) []string {
	row := []string{label}
	for _, o := range reconcile.Outcomes() {
		row = append(row, strconv.Itoa(t[o]))
	}
	return row
}
