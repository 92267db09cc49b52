package report

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spigell/talentscore/internal/scoring"
	"github.com/xuri/excelize/v2"
)

func TestWriteRoundTrip(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{JobID: "j1", Title: "Data Engineer", Company: "Acme", Breakdown: scoring.Combine(90, 80, 83, 10)},
		{JobID: "j2", Title: "Designer", Company: "Other", Breakdown: scoring.Combine(40, 50, 20, 70)},
	}

	var buf bytes.Buffer
	if err := Write(&buf, rows); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	got, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d rows, want 3", len(got))
	}
	if got[0][0] != "Job ID" || got[0][9] != "Confidence" {
		t.Fatalf("header = %v", got[0])
	}

	want := rows[0].Breakdown
	if got[1][0] != "j1" || got[1][8] != string(want.Recommendation) {
		t.Fatalf("row = %v", got[1])
	}
}

func TestWriteFileEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.xlsx")
	if err := WriteFile(path, nil); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil || len(rows) != 1 {
		t.Fatalf("GetRows() = %v, %v", rows, err)
	}
}
