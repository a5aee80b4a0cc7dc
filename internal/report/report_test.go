package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/facultydash/internal/models"
)

func sampleAnalytics() *models.Analytics {
	rate := 85.0
	return &models.Analytics{
		Batch: models.Batch{Branch: "CS", Year: 2024, Semester: 4},
		Subjects: []models.SubjectCard{
			{Code: "CS101", Name: "Data Structures", Average: 72.5, PassRate: &rate, Count: 40},
			{Code: "CS102", Name: "Algorithms", Average: 60, Count: 38},
		},
		Risk: models.RiskDistribution{
			Labels: []string{"low", "medium"},
			Values: []int{10, 5},
			Total:  15,
		},
		FetchedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleAnalytics(), "text"); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Graph Analysis: CS — 2024 — Sem 4",
		"[1] Data Structures (CS101)",
		"Average: 72.50%  Pass: 85%  Students: 40",
		"Pass: N/A",
		"low",
		"(66.7%)",
		"Mean average: 66.25%",
		"Mean pass rate: 85.00% (1 of 2 subjects)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in text report:\n%s", want, out)
		}
	}
}

func TestWriteTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	a := &models.Analytics{Batch: models.Batch{Branch: "CS", Year: 2024, Semester: 4}}
	if err := Write(&buf, a, ""); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if !strings.Contains(buf.String(), "No subject data") || !strings.Contains(buf.String(), "No risk data") {
		t.Errorf("Expected empty-data messages, got:\n%s", buf.String())
	}
}

func TestWriteStructured(t *testing.T) {
	a := sampleAnalytics()

	var jsonBuf bytes.Buffer
	if err := Write(&jsonBuf, a, "json"); err != nil {
		t.Fatalf("json: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(jsonBuf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	subjects, _ := decoded["subjects"].([]any)
	if len(subjects) != 2 {
		t.Errorf("Expected 2 subjects in json, got %v", decoded["subjects"])
	}

	var yamlBuf bytes.Buffer
	if err := Write(&yamlBuf, a, "yaml"); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	var y struct {
		Risk struct {
			Total int `yaml:"total_students"`
		} `yaml:"risk"`
	}
	if err := yaml.Unmarshal(yamlBuf.Bytes(), &y); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if y.Risk.Total != 15 {
		t.Errorf("Expected total_students 15, got %d", y.Risk.Total)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleAnalytics(), "csv"); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d", len(records))
	}
	if records[1][3] != "CS101" || records[1][5] != "72.50" || records[1][6] != "85" {
		t.Errorf("unexpected first row %v", records[1])
	}
	if records[2][6] != "" {
		t.Errorf("Expected empty pass rate, got %q", records[2][6])
	}
}

func TestWriteParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subjects.parquet")
	if err := WriteFile(path, sampleAnalytics(), "parquet"); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	rows, err := ReadParquet(path)
	if err != nil {
		t.Fatalf("ReadParquet() error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0].Code != "CS101" || rows[0].PassRate == nil || *rows[0].PassRate != 85 {
		t.Errorf("unexpected first row %+v", rows[0])
	}
	if rows[1].PassRate != nil {
		t.Errorf("Expected nil pass rate, got %v", *rows[1].PassRate)
	}
}

func TestWriteErrors(t *testing.T) {
	if err := Write(&bytes.Buffer{}, sampleAnalytics(), "xml"); err == nil {
		t.Error("Expected unsupported format error")
	}
	if err := WriteFile("", sampleAnalytics(), "parquet"); err == nil {
		t.Error("Expected parquet to require an output file")
	}
}

func TestWriteRows(t *testing.T) {
	rows := Rows(sampleAnalytics())

	var text bytes.Buffer
	if err := WriteRows(&text, rows, "text"); err != nil {
		t.Fatalf("WriteRows(text) error: %v", err)
	}
	for _, want := range []string{"Rows: 2", "CS101", "pass 85%", "CS102", "pass N/A", "students 38"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("Expected %q in text output, got:\n%s", want, text.String())
		}
	}

	var csvOut bytes.Buffer
	if err := WriteRows(&csvOut, rows, "csv"); err != nil {
		t.Fatalf("WriteRows(csv) error: %v", err)
	}
	records, err := csv.NewReader(&csvOut).ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("Expected header plus 2 rows, got %d", len(records))
	}

	var decoded []SubjectRow
	var jsonOut bytes.Buffer
	if err := WriteRows(&jsonOut, rows, "json"); err != nil {
		t.Fatalf("WriteRows(json) error: %v", err)
	}
	if err := json.Unmarshal(jsonOut.Bytes(), &decoded); err != nil || len(decoded) != 2 {
		t.Errorf("Expected 2 json rows, got %d (%v)", len(decoded), err)
	}

	if err := WriteRows(&bytes.Buffer{}, rows, "yaml"); err == nil {
		t.Error("Expected an error for an unsupported row format")
	}
}
