package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
)

// Entry is one line of a Listing.
type Entry struct {
	Label string
	Path  string
	ID    string
	Line  int
	// Problem marks entries that fail the check; they are highlighted.
	Problem bool
}

// Listing renders entries as "<label>: <path> - <id>" lines. Structured
// formats serialize Data instead of the lines.
type Listing struct {
	Title   string
	Entries []Entry
	Footer  string
	Data    any
}

func (l *Listing) RenderData() any {
	if l.Data != nil {
		return l.Data
	}
	rows := make([]map[string]any, len(l.Entries))
	for i, e := range l.Entries {
		rows[i] = map[string]any{
			"label": e.Label,
			"path":  e.Path,
			"id":    e.ID,
			"line":  e.Line,
		}
	}
	return rows
}

func (l *Listing) RenderText(w io.Writer, colored bool) error {
	for _, e := range l.Entries {
		label := e.Label
		if colored {
			if e.Problem {
				label = color.RedString(label)
			} else {
				label = color.New(color.Faint).Sprint(label)
			}
		}
		if _, err := fmt.Fprintf(w, "%s: %s - %s\n", label, e.Path, e.ID); err != nil {
			return err
		}
	}
	return nil
}

func (l *Listing) RenderMarkdown(w io.Writer) error {
	return l.Table().RenderMarkdown(w)
}

// Table returns the listing as a table with one row per entry.
func (l *Listing) Table() *Table {
	rows := make([][]string, len(l.Entries))
	for i, e := range l.Entries {
		rows[i] = []string{e.Label, e.Path, strconv.Itoa(e.Line), e.ID}
	}

	var footer []string
	if l.Footer != "" {
		footer = []string{l.Footer, "", "", ""}
	}
	return NewTable(l.Title, []string{"Kind", "Path", "Line", "Identifier"}, rows, footer, l.Data)
}

// Problems returns the number of entries marked as problems.
func (l *Listing) Problems() int {
	n := 0
	for _, e := range l.Entries {
		if e.Problem {
			n++
		}
	}
	return n
}
