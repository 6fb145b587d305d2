package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/okian/planner/internal/domain/calendar"
	"github.com/okian/planner/internal/domain/datekey"
	"github.com/okian/planner/internal/domain/model"
)

const gridWidth = len("Sun Mon Tue Wed Thu Fri Sat")

//nolint:gochecknoglobals // shared styles
var (
	headerStyle = color.New(color.Bold, color.Underline)
	faintStyle  = color.New(color.Faint, color.FgWhite)
	busyStyle   = color.New(color.Bold, color.FgHiWhite)
	todayStyle  = color.New(color.Bold, color.FgBlack, color.BgHiWhite)
	idStyle     = color.New(color.Faint)
)

// bucketReader is the slice of the event store the printers read.
type bucketReader interface {
	Bucket(key datekey.Key) []model.Event
}

func printEvents(w io.Writer, events []model.Event, categories []model.Category) {
	if len(events) == 0 {
		_, _ = fmt.Fprintln(w, faintStyle.Sprint("no events"))
		return
	}
	names := categoryNames(categories)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(headerStyle.Sprint("DATE"), headerStyle.Sprint("TEXT"), headerStyle.Sprint("CATEGORY"), headerStyle.Sprint("ID"))
	for _, e := range events {
		tbl.AddRow(e.Date, e.Text, categoryLabel(e, names), idStyle.Sprint(e.ID))
	}
	_, _ = fmt.Fprintln(w, tbl)
}

func printCategories(w io.Writer, categories []model.Category) {
	if len(categories) == 0 {
		_, _ = fmt.Fprintln(w, faintStyle.Sprint("no categories"))
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(headerStyle.Sprint("NAME"), headerStyle.Sprint("COLOR"), headerStyle.Sprint("ID"))
	for _, c := range categories {
		tbl.AddRow(c.Name, c.Color, idStyle.Sprint(c.ID))
	}
	_, _ = fmt.Fprintln(w, tbl)
}

// printMonth draws the grid; days holding events are bold and today is
// highlighted.
func printMonth(w io.Writer, g calendar.Grid) {
	title := g.Month.Format("January 2006")
	pad := (gridWidth - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	_, _ = fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", pad), headerStyle.Sprint(title))
	_, _ = fmt.Fprintln(w, strings.Join(g.Headers(), " "))

	for _, week := range g.Weeks() {
		cells := make([]string, len(week))
		for i, c := range week {
			cells[i] = dayCell(c)
		}
		_, _ = fmt.Fprintln(w, strings.Join(cells, " "))
	}
}

func dayCell(c calendar.Cell) string {
	if c.Blank() {
		return "   "
	}
	label := fmt.Sprintf("%2d", c.Day)
	marker := " "
	if c.Events > 0 {
		marker = "*"
	}
	switch {
	case c.Today:
		return todayStyle.Sprint(label) + marker
	case c.Events > 0:
		return busyStyle.Sprint(label) + marker
	default:
		return faintStyle.Sprint(label) + marker
	}
}

func printMonthEvents(w io.Writer, g calendar.Grid, events bucketReader, categories []model.Category) {
	var rows []model.Event
	for _, c := range g.Cells {
		if c.Events > 0 {
			rows = append(rows, events.Bucket(c.Key)...)
		}
	}
	_, _ = fmt.Fprintln(w)
	printEvents(w, rows, categories)
}

func categoryNames(categories []model.Category) map[string]string {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names
}

func categoryLabel(e model.Event, names map[string]string) string {
	if e.CategoryID == nil {
		return faintStyle.Sprint("-")
	}
	if name, ok := names[*e.CategoryID]; ok {
		return name
	}
	return faintStyle.Sprint(*e.CategoryID)
}
