// Package tables holds the look of all tables printed by the CLI.
package tables

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// DefaultStyle is the light box style without outer border and column lines. Headers keep their case.
var DefaultStyle = newStyle()

func newStyle() table.Style {
	s := table.StyleLight
	s.Name = "mobilectl"
	s.Box.PaddingLeft = "  "
	s.Box.PaddingRight = "  "
	s.Format = table.FormatOptions{
		Footer: text.FormatDefault,
		Header: text.FormatDefault,
		Row:    text.FormatDefault,
	}
	s.Options = table.Options{
		SeparateFooter: true,
		SeparateHeader: true,
	}
	return s
}
