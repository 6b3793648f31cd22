package table

import (
	"io"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// WriteText renders the matrix as an aligned, thousands-separated text table.
// Years are printed verbatim so they are not grouped like values.
func (m *Matrix) WriteText(w io.Writer) error {
	p := message.NewPrinter(language.English)

	if _, err := p.Fprintf(w, "%-6s", "year"); err != nil {
		return err
	}
	for _, c := range m.Columns {
		if _, err := p.Fprintf(w, "  %18s", c); err != nil {
			return err
		}
	}
	if _, err := p.Fprintln(w); err != nil {
		return err
	}

	for i, r := range m.Rows {
		if _, err := p.Fprintf(w, "%-6s", strconv.Itoa(r)); err != nil {
			return err
		}
		for j := range m.Columns {
			if _, err := p.Fprintf(w, "  %18.f", m.Values[i][j]); err != nil {
				return err
			}
		}
		if _, err := p.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// WriteText renders the ranking one entry per line, numbered like a league table.
func (r Ranking) WriteText(w io.Writer) error {
	p := message.NewPrinter(language.English)
	for i, e := range r {
		if _, err := p.Fprintf(w, "%02d. %-30s  %18.f\n", i+1, e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}
