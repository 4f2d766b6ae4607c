// Package leaderboard renders a weekly snapshot as HTML leaderboard tables.
package leaderboard

import (
	"bytes"
	"context"
	"html/template"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/ripixel/fitglue-leaderboard/pkg/domain/activity"
	"github.com/ripixel/fitglue-leaderboard/pkg/snapshot"
	"github.com/ripixel/fitglue-leaderboard/pkg/types"
)

// Row is one athlete's line in a category table.
type Row struct {
	Name       string
	Count      int
	DistanceKm float64
	TimeHours  float64
	ElevationM float64
}

// Rows projects the snapshot onto one category, drops athletes without
// distance and orders the rest by distance, longest first. Ties keep their
// snapshot order.
func Rows(s *types.Snapshot, c activity.Category) []Row {
	rows := make([]Row, 0, len(s.Athletes))
	for _, a := range s.Athletes {
		t := activity.Totals(a.Weekly, c)
		if !(t.DistanceKm > 0) {
			continue
		}
		rows = append(rows, Row{
			Name:       a.Name,
			Count:      t.Count,
			DistanceKm: t.DistanceKm,
			TimeHours:  t.TimeHours,
			ElevationM: t.ElevationM,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DistanceKm > rows[j].DistanceKm
	})
	return rows
}

// Page is a rendered leaderboard: the two header lines and one HTML
// fragment per category container.
type Page struct {
	LastUpdated string
	WeekRange   string
	Cycling     template.HTML
	Running     template.HTML

	// Err is the load failure shown in the cycling container, if any.
	Err error
}

// Renderer turns snapshots into pages.
type Renderer struct {
	// Location is the display zone; nil means time.Local.
	Location *time.Location

	Logger *slog.Logger
}

// Render loads the snapshot from src and renders it. A load failure yields
// a page with an error panel instead of tables.
func (r *Renderer) Render(ctx context.Context, src Source) *Page {
	s, err := src.Load(ctx)
	if err != nil {
		r.logger().Error("Error loading leaderboard", "error", err)
		return r.RenderError(err)
	}
	return r.RenderSnapshot(s)
}

// RenderSnapshot renders both category tables and the header lines.
func (r *Renderer) RenderSnapshot(s *types.Snapshot) *Page {
	loc := r.location()
	return &Page{
		LastUpdated: LastUpdatedText(s.LastUpdated, loc),
		WeekRange:   WeekRangeText(s.WeekStart, s.WeekEnd, loc),
		Cycling:     r.Table(s, activity.CategoryCycling),
		Running:     r.Table(s, activity.CategoryRunning),
	}
}

// RenderError renders the error panel in the cycling container and leaves
// the running container empty.
func (r *Renderer) RenderError(err error) *Page {
	return &Page{
		Cycling: execute("error", struct{ Message string }{snapshot.Describe(err)}),
		Err:     err,
	}
}

// Table renders one category table, or the empty-week placeholder.
func (r *Renderer) Table(s *types.Snapshot, c activity.Category) template.HTML {
	rows := Rows(s, c)
	if len(rows) == 0 {
		return execute("no-data", struct{ Category string }{string(c)})
	}
	return execute("table", struct {
		Title      string
		CountLabel string
		Rows       []Row
	}{c.Title(), c.CountLabel(), rows})
}

// WritePage writes a complete HTML document hosting the page.
func WritePage(w io.Writer, p *Page) error {
	return templates.ExecuteTemplate(w, "page", p)
}

func (r *Renderer) location() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	return time.Local
}

func (r *Renderer) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default().With("component", "leaderboard")
}

// execute renders a fragment template. The templates only fail on
// programming errors, which surface as an empty fragment and a log line.
func execute(name string, data interface{}) template.HTML {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("Template execution failed", "component", "leaderboard", "template", name, "error", err)
		return ""
	}
	return template.HTML(buf.String())
}
