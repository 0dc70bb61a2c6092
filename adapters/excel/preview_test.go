package excel

import (
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"gopivot/domain/grid"
	"gopivot/domain/pivot"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for r, row := range rows {
		for c, cell := range row {
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName failed: %v", err)
			}
			if err := f.SetCellValue("Sheet1", name, cell); err != nil {
				t.Fatalf("SetCellValue failed: %v", err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "preview.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs failed: %v", err)
	}
	return path
}

func previewTable(t *testing.T, rows []*pivot.Group, values []*pivot.Value) *pivot.Table {
	t.Helper()
	src, err := grid.ParseRange("A1", "C7")
	if err != nil {
		t.Fatalf("ParseRange failed: %v", err)
	}
	table, err := pivot.Build(pivot.TableConfig{
		SheetID:     0,
		SourceRange: &src,
		Rows:        rows,
		Values:      values,
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return table
}

func salesWorkbook(t *testing.T) string {
	t.Helper()
	return writeWorkbook(t, [][]interface{}{
		{"Region", "Amount", "Date"},
		{"north", 10, "2024-01-05"},
		{"north", 20, "2024-02-14"},
		{"south", 5, "2024-01-20"},
		{"south", 15, "2024-03-01"},
		{"east", 30, "2024-02-02"},
		{"east", 40, "2024-03-30"},
	})
}

func TestSummarizeGroupsAndAggregates(t *testing.T) {
	path := salesWorkbook(t)

	groupSrc, err := grid.ParseRange("A1", "A7")
	if err != nil {
		t.Fatalf("ParseRange failed: %v", err)
	}
	sum, err := pivot.NewSourceColumnValue(pivot.SummarizeSum, 1)
	if err != nil {
		t.Fatalf("NewSourceColumnValue failed: %v", err)
	}
	sum.Name = "Total"
	count, err := pivot.NewSourceColumnValue(pivot.SummarizeCount, 1)
	if err != nil {
		t.Fatalf("NewSourceColumnValue failed: %v", err)
	}

	table := previewTable(t,
		[]*pivot.Group{pivot.NewGroup("Region", groupSrc)},
		[]*pivot.Value{sum, count})

	summary, err := NewPreview(path, "").Summarize(table)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary.GroupLabel != "Region" {
		t.Errorf("GroupLabel = %q", summary.GroupLabel)
	}

	// Keys come back sorted.
	wantSums := map[string]float64{"east": 70, "north": 30, "south": 20}
	if len(summary.Buckets) != len(wantSums) {
		t.Fatalf("got %d buckets: %+v", len(summary.Buckets), summary.Buckets)
	}
	for _, bucket := range summary.Buckets {
		want, ok := wantSums[bucket.Key]
		if !ok {
			t.Errorf("unexpected bucket %q", bucket.Key)
			continue
		}
		if bucket.RowCount != 2 {
			t.Errorf("bucket %q RowCount = %d, want 2", bucket.Key, bucket.RowCount)
		}
		if got := bucket.Aggregates[0].Result; got != want {
			t.Errorf("bucket %q SUM = %v, want %v", bucket.Key, got, want)
		}
		if got := bucket.Aggregates[1].Result; got != 2 {
			t.Errorf("bucket %q COUNT = %v, want 2", bucket.Key, got)
		}
	}
}

func TestSummarizeManualRule(t *testing.T) {
	path := salesWorkbook(t)

	groupSrc, err := grid.ParseRange("A1", "A7")
	if err != nil {
		t.Fatalf("ParseRange failed: %v", err)
	}
	group := pivot.NewGroup("Region", groupSrc)
	group.Rule = pivot.ManualRule{Groups: []pivot.ManualGroup{{
		GroupName: json.RawMessage(`"coastal"`),
		Items: []json.RawMessage{
			json.RawMessage(`"north"`),
			json.RawMessage(`"south"`),
		},
	}}}

	sum, err := pivot.NewSourceColumnValue(pivot.SummarizeSum, 1)
	if err != nil {
		t.Fatalf("NewSourceColumnValue failed: %v", err)
	}
	table := previewTable(t, []*pivot.Group{group}, []*pivot.Value{sum})

	summary, err := NewPreview(path, "Sheet1").Summarize(table)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	got := make(map[string]float64)
	for _, b := range summary.Buckets {
		got[b.Key] = b.Aggregates[0].Result
	}
	if got["coastal"] != 50 {
		t.Errorf("coastal SUM = %v, want 50 (north+south)", got["coastal"])
	}
	if got["east"] != 70 {
		t.Errorf("east SUM = %v, want 70", got["east"])
	}
}

func TestSummarizeRejectsUnsupportedValues(t *testing.T) {
	path := salesWorkbook(t)
	formula, err := pivot.NewFormulaValue(pivot.SummarizeCustom, "=B1*2")
	if err != nil {
		t.Fatalf("NewFormulaValue failed: %v", err)
	}
	table := previewTable(t, nil, []*pivot.Value{formula})

	if _, err := NewPreview(path, "").Summarize(table); err == nil {
		t.Errorf("formula value previewed without error")
	}
}

func TestBucketKeyHistogram(t *testing.T) {
	rule, err := pivot.NewHistogramRule(10, 0, 30)
	if err != nil {
		t.Fatalf("NewHistogramRule failed: %v", err)
	}
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "-5", want: "< 0"},
		{raw: "0", want: "0 - 10"},
		{raw: "12", want: "10 - 20"},
		{raw: "30", want: ">= 30"},
		{raw: "99", want: ">= 30"},
		{raw: "abc", want: "(non-numeric)"},
	}
	for _, tt := range tests {
		got, err := bucketKey(rule, tt.raw)
		if err != nil {
			t.Fatalf("bucketKey(%q) failed: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("bucketKey(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestDateBucket(t *testing.T) {
	tests := []struct {
		granularity pivot.DateTimeGranularity
		raw         string
		want        string
	}{
		{pivot.GranularityYear, "2024-03-30", "2024"},
		{pivot.GranularityMonth, "2024-03-30", "March"},
		{pivot.GranularityYearMonth, "2024-03-30", "2024-03"},
		{pivot.GranularityQuarter, "2024-03-30", "Q1"},
		{pivot.GranularityYearQuarter, "2024-07-01", "2024-Q3"},
		{pivot.GranularityDayOfWeek, "2024-01-01", "Monday"},
		{pivot.GranularityDayMonth, "2024-03-05", "05-Mar"},
	}
	for _, tt := range tests {
		if got := dateBucket(tt.granularity, tt.raw); got != tt.want {
			t.Errorf("dateBucket(%s, %q) = %q, want %q", tt.granularity, tt.raw, got, tt.want)
		}
	}
}

func TestHistogramCounts(t *testing.T) {
	rule, err := pivot.NewHistogramRule(10, 0, 30)
	if err != nil {
		t.Fatalf("NewHistogramRule failed: %v", err)
	}
	counts := HistogramCounts(rule, []float64{5, 12, 25, 35, -2})

	want := []float64{2, 1, 2}
	if len(counts) != len(want) {
		t.Fatalf("got %d bins: %v", len(counts), counts)
	}
	for i := range want {
		if math.Abs(counts[i]-want[i]) > 1e-9 {
			t.Errorf("bin %d = %v, want %v", i, counts[i], want[i])
		}
	}
}
