package report

import (
	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
)

// reportRenderer walks a goldmark AST and draws it into an fpdf document.
// Reports are machine-generated with a fixed shape (headings, bold labels,
// bullet lists, one table), so the renderer only covers those node kinds.
type reportRenderer struct {
	pdf    *fpdf.Fpdf
	source []byte
	bold   bool
	inList bool
}

func (r *reportRenderer) render(doc ast.Node) error {
	return ast.Walk(doc, r.walk)
}

func (r *reportRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			r.pdf.Ln(4)
			size := 16.0
			if node.Level > 1 {
				size = 12.5
			}
			r.pdf.SetFont("Arial", "B", size)
		} else {
			r.pdf.Ln(7)
			r.resetFont()
		}
	case *ast.Paragraph:
		if !entering && !r.inList {
			r.pdf.Ln(6)
		}
	case *ast.Text:
		if entering {
			r.pdf.Write(5, string(node.Text(r.source)))
		}
	case *ast.Emphasis:
		r.bold = entering && node.Level == 2
		r.resetFont()
	case *ast.List:
		r.inList = entering
		if !entering {
			r.pdf.Ln(4)
		}
	case *ast.ListItem:
		if entering {
			r.pdf.Ln(5)
			r.pdf.SetX(16)
			r.pdf.Write(5, "- ")
		}
	case *extast.Table:
		if entering {
			r.renderTable(node)
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

func (r *reportRenderer) resetFont() {
	style := ""
	if r.bold {
		style = "B"
	}
	r.pdf.SetFont("Arial", style, 10)
}

// renderTable draws a table with equal-width columns. Report tables are
// narrow numeric tallies, so equal widths are sufficient.
func (r *reportRenderer) renderTable(table *extast.Table) {
	rows := tableRows(table, r.source)
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	r.pdf.Ln(5)
	colWidth := 186.0 / float64(len(rows[0]))

	for i, row := range rows {
		if i == 0 {
			r.pdf.SetFont("Arial", "B", 9)
			r.pdf.SetFillColor(235, 235, 235)
		} else {
			r.pdf.SetFont("Arial", "", 9)
			r.pdf.SetFillColor(255, 255, 255)
		}
		for _, cell := range row {
			r.pdf.CellFormat(colWidth, 6, cell, "1", 0, "L", i == 0, 0, "")
		}
		r.pdf.Ln(6)
	}

	r.pdf.Ln(3)
	r.resetFont()
}

// tableRows flattens a goldmark table node into cell text, header row first.
func tableRows(table *extast.Table, source []byte) [][]string {
	var rows [][]string
	appendRow := func(tr ast.Node) {
		var row []string
		for cell := tr.FirstChild(); cell != nil; cell = cell.NextSibling() {
			row = append(row, string(cell.Text(source)))
		}
		rows = append(rows, row)
	}

	// A TableHeader holds its cells directly, like a row.
	for child := table.FirstChild(); child != nil; child = child.NextSibling() {
		switch node := child.(type) {
		case *extast.TableHeader:
			appendRow(node)
		case *extast.TableRow:
			appendRow(node)
		}
	}
	return rows
}
