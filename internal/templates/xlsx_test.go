package templates

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"schedsnap/internal/model"
)

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, ref, &rows[i]); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func header() []any {
	out := make([]any, len(XLSXHeader))
	for i, h := range XLSXHeader {
		out[i] = h
	}
	return out
}

func TestParseXLSX(t *testing.T) {
	data := workbook(t, [][]any{
		header(),
		{"Monday", "A", 1, "", "odd", "Math", "Ivanova", "101"},
		{"mon", "B", 1, "2", "", "Art", "", ""},
		{"mon", "A", 2, "", "every", "Art", "", "102"},
		{"sunday", "A", 1, "", "", "Rest", "", ""},
		{"tue", "A", "x", "", "", "Bad slot", "", ""},
		{"tue", "A", 3, "", "weird", "Bad parity", "", ""},
		{"sat", "C", 4, "1", "even", "PE", "Coach", ""},
	})

	days, err := ParseXLSX(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 2 || days[0].Day != model.Monday || days[1].Day != model.Saturday {
		t.Fatalf("days = %+v", days)
	}

	mon := days[0]
	if len(mon.Groups) != 2 || mon.Groups[0].Name != "A" || mon.Groups[1].Name != "B" {
		t.Fatalf("monday groups out of row order: %+v", mon.Groups)
	}
	a := mon.Groups[0].Lessons
	if len(a) != 2 || a[0].Name != "Math" || a[1].Num != 2 {
		t.Fatalf("group A lessons = %+v", a)
	}
	if a[0].Parity() != model.ParityOdd || a[0].Teacher == nil || *a[0].Teacher != "Ivanova" {
		t.Errorf("math lesson = %+v", a[0])
	}
	if a[1].Teacher != nil || a[1].Classroom == nil || *a[1].Classroom != "102" {
		t.Errorf("empty cells should be absent, got %+v", a[1])
	}
	b := mon.Groups[1].Lessons[0]
	if b.Subgroup == nil || *b.Subgroup != 2 {
		t.Errorf("subgroup = %v", b.Subgroup)
	}

	sat := days[1].Groups[0].Lessons[0]
	if sat.Parity() != model.ParityEven || sat.Num != 4 {
		t.Errorf("saturday lesson = %+v", sat)
	}
}

func TestParseXLSX_NotAWorkbook(t *testing.T) {
	if _, err := ParseXLSX(bytes.NewReader([]byte("plain text"))); err == nil {
		t.Error("expected error")
	}
}

func TestLoadXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.xlsx")
	data := workbook(t, [][]any{header(), {"fri", "A", 1, "", "", "Math", "", ""}})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	set := LoadXLSX(path)
	if _, ok := set.Lookup(model.Friday); !ok || set.Len() != 1 {
		t.Fatalf("workbook set = %+v", set.Days())
	}
	if LoadXLSX(filepath.Join(dir, "missing.xlsx")).Len() != 0 {
		t.Error("missing workbook should yield an empty set")
	}
}
