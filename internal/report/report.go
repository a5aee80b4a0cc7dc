// Package report prints fetched analytics in the formats the fetch command
// supports.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/facultydash/internal/models"
)

// Formats lists the supported output formats
var Formats = []string{"text", "json", "yaml", "csv", "parquet"}

// SubjectRow is the flattened form of a subject card used for csv and parquet
type SubjectRow struct {
	Branch   string   `parquet:"branch"`
	Year     int64    `parquet:"year"`
	Semester int64    `parquet:"semester"`
	Code     string   `parquet:"sub_code"`
	Name     string   `parquet:"sub_name"`
	Average  float64  `parquet:"average"`
	PassRate *float64 `parquet:"pass_rate,optional"`
	Count    int64    `parquet:"count"`
}

// Rows flattens a's subject cards in display order
func Rows(a *models.Analytics) []SubjectRow {
	rows := make([]SubjectRow, 0, len(a.Subjects))
	for _, c := range a.Subjects {
		rows = append(rows, SubjectRow{
			Branch:   a.Batch.Branch,
			Year:     int64(a.Batch.Year),
			Semester: int64(a.Batch.Semester),
			Code:     c.Code,
			Name:     c.Name,
			Average:  c.Average,
			PassRate: c.PassRate,
			Count:    int64(c.Count),
		})
	}
	return rows
}

// Write renders a in the given format
func Write(w io.Writer, a *models.Analytics, format string) error {
	switch format {
	case "", "text":
		return writeText(w, a)
	case "json":
		return writeJSON(w, a)
	case "yaml":
		return writeYAML(w, a)
	case "csv":
		return writeCSV(w, a)
	case "parquet":
		return writeParquet(w, a)
	default:
		return fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// WriteFile writes a report to path, or to stdout when path is empty or "-"
func WriteFile(path string, a *models.Analytics, format string) error {
	if path == "" || path == "-" {
		if format == "parquet" {
			return fmt.Errorf("parquet output requires --output")
		}
		return Write(os.Stdout, a, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(f, a, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeText(w io.Writer, a *models.Analytics) error {
	var b strings.Builder
	fmt.Fprintln(&b, "========================================")
	fmt.Fprintf(&b, "Graph Analysis: %s\n", a.Batch.Label())
	fmt.Fprintln(&b, "========================================")
	if !a.FetchedAt.IsZero() {
		fmt.Fprintf(&b, "Fetched: %s\n", a.FetchedAt.Format("2006-01-02 15:04:05"))
	}

	fmt.Fprintf(&b, "\nSubjects (%d):\n", len(a.Subjects))
	if len(a.Subjects) == 0 {
		fmt.Fprintln(&b, "  No subject data for this batch.")
	}
	for i, c := range a.Subjects {
		fmt.Fprintf(&b, "  [%d] %s\n", i+1, c.ChartLabel())
		fmt.Fprintf(&b, "      Average: %s  %s  %s\n", c.AverageLabel(), c.PassLabel(), c.StudentsLabel())
	}

	fmt.Fprintf(&b, "\nRisk distribution (total %d):\n", a.Risk.Total)
	if a.Risk.Empty() {
		fmt.Fprintln(&b, "  No risk data for this batch.")
	} else {
		for i, label := range a.Risk.Labels {
			fmt.Fprintf(&b, "  %-10s %5d  (%.1f%%)\n", label, a.Risk.Values[i], a.Risk.Percent(i))
		}
	}

	if len(a.Subjects) > 0 {
		Summarize(a).write(&b)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeJSON(w io.Writer, a *models.Analytics) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(a)
}

func writeYAML(w io.Writer, a *models.Analytics) error {
	data, err := yaml.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func writeCSV(w io.Writer, a *models.Analytics) error {
	return writeRowsCSV(w, Rows(a))
}

// RowFormats lists the formats WriteRows supports
var RowFormats = []string{"text", "json", "csv"}

// WriteRows prints subject rows read back from a parquet report
func WriteRows(w io.Writer, rows []SubjectRow, format string) error {
	switch format {
	case "", "text":
		return writeRowsText(w, rows)
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(rows)
	case "csv":
		return writeRowsCSV(w, rows)
	default:
		return fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(RowFormats, ", "))
	}
}

func writeRowsText(w io.Writer, rows []SubjectRow) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Rows: %d\n", len(rows))
	for i, r := range rows {
		pass := "N/A"
		if r.PassRate != nil {
			pass = strconv.FormatFloat(*r.PassRate, 'f', -1, 64) + "%"
		}
		fmt.Fprintf(&b, "  [%d] %s %d Sem %d  %s  %s  avg %.2f%%  pass %s  students %d\n",
			i+1, r.Branch, r.Year, r.Semester, r.Code, r.Name, r.Average, pass, r.Count)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeRowsCSV(w io.Writer, rows []SubjectRow) error {
	writer := csv.NewWriter(w)

	header := []string{"branch", "year", "semester", "sub_code", "sub_name", "average", "pass_rate", "count"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		pass := ""
		if r.PassRate != nil {
			pass = strconv.FormatFloat(*r.PassRate, 'f', -1, 64)
		}
		row := []string{
			r.Branch,
			strconv.FormatInt(r.Year, 10),
			strconv.FormatInt(r.Semester, 10),
			r.Code,
			r.Name,
			fmt.Sprintf("%.2f", r.Average),
			pass,
			strconv.FormatInt(r.Count, 10),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeParquet(w io.Writer, a *models.Analytics) error {
	writer := parquet.NewGenericWriter[SubjectRow](w)
	if _, err := writer.Write(Rows(a)); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// ReadParquet loads subject rows written by the parquet format
func ReadParquet(path string) ([]SubjectRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[SubjectRow](pf)
	defer reader.Close()

	rows := make([]SubjectRow, pf.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows[:n], nil
}
