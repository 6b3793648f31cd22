package cpi

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/mr1hm/emdat-stats/internal/models"
	"github.com/mr1hm/emdat-stats/internal/table"
)

const sampleCSV = `US consumer price index, all urban consumers
Year,CPI
2000,172.2
2001,177.1
2002,179.9
2003,184.0
2004,188.9
2005,195.3
2010,218.056
`

func sampleTable(t *testing.T) *Table {
	tbl, err := ReadTable(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	return tbl
}

func TestReadTable(t *testing.T) {
	tbl := sampleTable(t)

	years := tbl.Years()
	if len(years) != 7 || years[0] != 2000 || years[6] != 2010 {
		t.Errorf("unexpected years %v", years)
	}
	v, err := tbl.Value(2010)
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v.String() != "218.056" {
		t.Errorf("expected 218.056, got %s", v)
	}
}

func TestReadTable_Errors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"bad year", "title\nYear,CPI\nnineteen,1.0\n"},
		{"bad value", "title\nYear,CPI\n2000,n/a\n"},
		{"no year column", "title\nDate,CPI\n2000,1.0\n"},
		{"title only", "title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadTable(strings.NewReader(tt.csv)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tbl, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}
	if len(tbl.Years()) != 7 {
		t.Errorf("expected 7 years, got %v", tbl.Years())
	}

	if _, err := LoadTable(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRebase_SameYearIsIdentity(t *testing.T) {
	r := NewRebaser(sampleTable(t))

	for _, y := range []int{2000, 2005, 2010} {
		got, err := r.Rebase(table.Series{Years: []int{y}, Values: []float64{1234.9}}, y)
		if err != nil {
			t.Fatalf("Rebase failed: %v", err)
		}
		if got[0] != 1234 {
			t.Errorf("%d: expected 1234, got %d", y, got[0])
		}
	}
}

func TestRebase_Values(t *testing.T) {
	r := NewRebaser(NewTable(map[int]float64{2000: 50, 2005: 80, 2010: 100}))

	s := table.Series{
		Years:  []int{2000, 2005, 2010},
		Values: []float64{1000, 1000, -15.5},
	}
	got, err := r.Rebase(s, 2010)
	if err != nil {
		t.Fatalf("Rebase failed: %v", err)
	}

	want := []int64{2000, 1250, -15}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("year %d: expected %d, got %d", s.Years[i], want[i], got[i])
		}
	}
}

func TestRebase_DoubleRebaseIsClose(t *testing.T) {
	r := NewRebaser(sampleTable(t))
	s := table.Series{
		Years:  []int{2000, 2001, 2002, 2003, 2004, 2005},
		Values: []float64{12345.67, 500, 98765, 1, 0, 7777.7},
	}

	// 2010 dollars, then from 2010 back to 2003 dollars
	via, err := r.Rebase(s, 2010)
	if err != nil {
		t.Fatalf("Rebase failed: %v", err)
	}
	at2010 := table.Series{Years: make([]int, len(via)), Values: make([]float64, len(via))}
	for i, v := range via {
		at2010.Years[i] = 2010
		at2010.Values[i] = float64(v)
	}
	double, err := r.Rebase(at2010, 2003)
	if err != nil {
		t.Fatalf("Rebase failed: %v", err)
	}

	direct, err := r.Rebase(s, 2003)
	if err != nil {
		t.Fatalf("Rebase failed: %v", err)
	}

	for i := range direct {
		diff := direct[i] - double[i]
		if diff < -1 || diff > 1 {
			t.Errorf("year %d: direct %d, double %d", s.Years[i], direct[i], double[i])
		}
	}
}

func TestRebase_MissingYear(t *testing.T) {
	r := NewRebaser(sampleTable(t))

	_, err := r.Rebase(table.Series{Years: []int{2000}, Values: []float64{1}}, 1999)
	if !errors.Is(err, models.ErrMissingReferenceYear) {
		t.Errorf("missing base year: expected ErrMissingReferenceYear, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "1999") {
		t.Errorf("expected error to name 1999, got %v", err)
	}

	_, err = r.Rebase(table.Series{Years: []int{2000, 2007}, Values: []float64{1, 1}}, 2010)
	if !errors.Is(err, models.ErrMissingReferenceYear) {
		t.Errorf("missing series year: expected ErrMissingReferenceYear, got %v", err)
	}
}

func TestRebaseMatrix(t *testing.T) {
	r := NewRebaser(NewTable(map[int]float64{2000: 50, 2001: 100}))

	m := table.NewMatrix([]int{2000, 2001}, []string{"Flood", "Storm"})
	m.Add(2000, "Flood", 10)
	m.Add(2001, "Storm", 7)

	out, err := r.RebaseMatrix(m, 2001)
	if err != nil {
		t.Fatalf("RebaseMatrix failed: %v", err)
	}
	if out.At(2000, "Flood") != 20 || out.At(2001, "Storm") != 7 || out.At(2000, "Storm") != 0 {
		t.Errorf("unexpected matrix: %s", spew.Sdump(out.Values))
	}
	if m.At(2000, "Flood") != 10 {
		t.Errorf("input matrix was modified")
	}
}
