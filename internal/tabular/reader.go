// Package tabular reads the clinic appointment export and writes the CSV
// files produced by a run.
//
// The export arrives either as CSV or as an HTML table saved with a
// spreadsheet extension. Both are reduced to a header row plus data rows
// before the configured columns are mapped onto domain.AppointmentRow.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/roach88/remindsync/internal/domain"
)

// Format identifies the export layout.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// Columns names the export columns mapped onto an AppointmentRow.
type Columns struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Status    string `json:"status"`
	Procedure string `json:"procedure"`
	Site      string `json:"site"`
	Doctor    string `json:"doctor"`
	Start     string `json:"start"`
}

// DefaultColumns returns the column names of the stock export.
func DefaultColumns() Columns {
	return Columns{
		Name:      "Nombre",
		Phone:     "movil",
		Status:    "Estado",
		Procedure: "Acto ID",
		Site:      "Centro",
		Doctor:    "Prof",
		Start:     "Start Time",
	}
}

func (c Columns) names() []string {
	return []string{c.Name, c.Phone, c.Status, c.Procedure, c.Site, c.Doctor, c.Start}
}

// Export is a decoded appointment export.
type Export struct {
	Format   Format
	Charset  Charset
	Header   []string
	Rows     []domain.AppointmentRow
	Warnings []string
}

// ErrNoTable is returned when an HTML export contains no table.
var ErrNoTable = errors.New("no table found in export")

// MissingColumnsError lists configured columns absent from the header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "export is missing column(s): " + strings.Join(e.Columns, ", ")
}

// ReadExportFile reads the export at path.
func ReadExportFile(path string, cols Columns) (*Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()
	return ReadExport(f, cols)
}

// ReadExport decodes an export, detecting its charset and format.
//
// Header cells are trimmed. Data rows shorter than the header are padded with
// empty cells, longer rows are truncated; both produce a warning. Rows whose
// cells are all blank are skipped.
func ReadExport(r io.Reader, cols Columns) (*Export, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	text, charset, err := DecodeText(data)
	if err != nil {
		return nil, err
	}

	exp := &Export{Charset: charset, Format: sniffFormat(text)}

	var records [][]string
	switch exp.Format {
	case FormatHTML:
		records, err = htmlRecords(text)
	default:
		records, err = csvRecords(text)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("export has no header row")
	}

	exp.Header = make([]string, len(records[0]))
	for i, h := range records[0] {
		exp.Header[i] = strings.TrimSpace(h)
	}

	index, err := columnIndex(exp.Header, cols)
	if err != nil {
		return nil, err
	}

	width := len(exp.Header)
	for n, rec := range records[1:] {
		line := n + 2
		switch {
		case len(rec) < width:
			exp.Warnings = append(exp.Warnings, fmt.Sprintf("row %d: %d cells, padded to %d", line, len(rec), width))
			rec = append(rec, make([]string, width-len(rec))...)
		case len(rec) > width:
			exp.Warnings = append(exp.Warnings, fmt.Sprintf("row %d: %d cells, truncated to %d", line, len(rec), width))
			rec = rec[:width]
		}
		if blank(rec) {
			continue
		}

		exp.Rows = append(exp.Rows, domain.AppointmentRow{
			Index:          len(exp.Rows),
			PatientName:    rec[index[cols.Name]],
			Phone:          rec[index[cols.Phone]],
			StatusCode:     rec[index[cols.Status]],
			ProcedureID:    rec[index[cols.Procedure]],
			SiteID:         rec[index[cols.Site]],
			DoctorCode:     rec[index[cols.Doctor]],
			ScheduledStart: rec[index[cols.Start]],
		})
	}

	return exp, nil
}

func sniffFormat(text string) Format {
	head := text
	if len(head) > 4096 {
		head = head[:4096]
	}
	head = strings.ToLower(head)
	if strings.Contains(head, "<table") || strings.Contains(head, "<html") {
		return FormatHTML
	}
	return FormatCSV
}

// columnIndex maps each configured column to its header position. The first
// occurrence of a repeated header wins.
func columnIndex(header []string, cols Columns) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		if _, ok := pos[h]; !ok {
			pos[h] = i
		}
	}

	index := make(map[string]int, 7)
	var missing []string
	for _, name := range cols.names() {
		i, ok := pos[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		index[name] = i
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}
	return index, nil
}

func blank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// csvRecords parses CSV text. The delimiter is ';' when the first line has
// more semicolons than commas, as spreadsheet exports in Spanish locales do.
func csvRecords(text string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv export: %w", err)
	}
	return records, nil
}

func sniffDelimiter(text string) rune {
	first, _, _ := strings.Cut(text, "\n")
	if strings.Count(first, ";") > strings.Count(first, ",") {
		return ';'
	}
	return ','
}

// htmlRecords extracts the rows of the first table in the document. Rows of
// tables nested inside it are ignored.
func htmlRecords(text string) ([][]string, error) {
	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parse html export: %w", err)
	}

	table := findFirst(doc, atom.Table)
	if table == nil {
		return nil, ErrNoTable
	}

	var records [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Table:
				continue
			case atom.Tr:
				records = append(records, rowCells(c))
			default:
				walk(c)
			}
		}
	}
	walk(table)

	return records, nil
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
			cells = append(cells, cellText(c))
		}
	}
	return cells
}

// cellText concatenates the text below n and collapses whitespace runs.
func cellText(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
