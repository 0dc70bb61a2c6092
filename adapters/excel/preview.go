package excel

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"gopivot/domain/pivot"

	"github.com/montanaflynn/stats"
	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/stat"
)

// Preview computes, from a local workbook, what each value of a pivot
// table would display per bucket of its first row group. It exists so
// a definition can be sanity-checked before it is pushed; the remote
// side stays the source of truth for the real rendering.
type Preview struct {
	filePath  string
	sheetName string
}

// NewPreview creates a preview over one sheet of a workbook file
func NewPreview(filePath, sheetName string) *Preview {
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	return &Preview{filePath: filePath, sheetName: sheetName}
}

// Summary is the computed preview: one bucket per group key, each
// carrying one aggregate per table value.
type Summary struct {
	GroupLabel string   `json:"group_label,omitempty"`
	Buckets    []Bucket `json:"buckets"`
}

type Bucket struct {
	Key        string      `json:"key"`
	RowCount   int         `json:"row_count"`
	Aggregates []Aggregate `json:"aggregates"`
}

type Aggregate struct {
	Name     string                  `json:"name,omitempty"`
	Function pivot.SummarizeFunction `json:"function"`
	Result   float64                 `json:"result"`
}

// Summarize evaluates the table's values over its inline source
// range. Tables bound to a detached data source, CUSTOM functions and
// formula values cannot be previewed locally.
func (p *Preview) Summarize(table *pivot.Table) (*Summary, error) {
	if table.SourceRange == nil {
		return nil, fmt.Errorf("preview requires an inline source range")
	}
	src := *table.SourceRange

	f, err := excelize.OpenFile(p.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(p.sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.sheetName, err)
	}

	// First row of the source range holds headers; the rest is data.
	var data [][]string
	for rowIdx := src.Start.Row; rowIdx < src.End.Row; rowIdx++ {
		if rowIdx >= int64(len(rows)) {
			break
		}
		row := rows[rowIdx]
		cells := make([]string, src.Cols())
		for c := int64(0); c < src.Cols(); c++ {
			col := src.Start.Col - 1 + c
			if col < int64(len(row)) {
				cells[c] = row[col]
			}
		}
		data = append(data, cells)
	}

	buckets, label, err := p.bucketRows(table, data, src.Start.Col)
	if err != nil {
		return nil, err
	}

	summary := &Summary{GroupLabel: label}
	for _, key := range sortedKeys(buckets) {
		rowIdxs := buckets[key]
		bucket := Bucket{Key: key, RowCount: len(rowIdxs)}
		for _, v := range table.Values {
			agg, err := p.aggregate(v, data, rowIdxs)
			if err != nil {
				return nil, err
			}
			bucket.Aggregates = append(bucket.Aggregates, agg)
		}
		summary.Buckets = append(summary.Buckets, bucket)
	}
	return summary, nil
}

// bucketRows assigns every data row to a bucket of the first row
// group. With no row groups everything lands in a single bucket.
func (p *Preview) bucketRows(table *pivot.Table, data [][]string, srcStartCol int64) (map[string][]int, string, error) {
	buckets := make(map[string][]int)
	if len(table.Rows) == 0 {
		for i := range data {
			buckets["TOTAL"] = append(buckets["TOTAL"], i)
		}
		return buckets, "", nil
	}

	group := table.Rows[0]
	colOffset := group.Source.Start.Col - srcStartCol
	if len(data) > 0 && (colOffset < 0 || colOffset >= int64(len(data[0]))) {
		return nil, "", fmt.Errorf("group source column is outside the table source range")
	}

	for i, row := range data {
		raw := ""
		if colOffset < int64(len(row)) {
			raw = row[colOffset]
		}
		key, err := bucketKey(group.Rule, raw)
		if err != nil {
			return nil, "", err
		}
		buckets[key] = append(buckets[key], i)
	}
	return buckets, group.Label, nil
}

// bucketKey maps one cell value to its group bucket under the active
// rule.
func bucketKey(rule pivot.GroupRule, raw string) (string, error) {
	switch r := rule.(type) {
	case nil:
		if raw == "" {
			return "(blank)", nil
		}
		return raw, nil
	case pivot.ManualRule:
		for _, mg := range r.Groups {
			name := rawString(mg.GroupName)
			for _, item := range mg.Items {
				if rawString(item) == raw {
					return name, nil
				}
			}
		}
		if raw == "" {
			return "(blank)", nil
		}
		return raw, nil
	case pivot.HistogramRule:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return "(non-numeric)", nil
		}
		switch {
		case v < r.Start:
			return fmt.Sprintf("< %v", r.Start), nil
		case v >= r.End:
			return fmt.Sprintf(">= %v", r.End), nil
		default:
			lo := r.Start + float64(int((v-r.Start)/r.Interval))*r.Interval
			return fmt.Sprintf("%v - %v", lo, lo+r.Interval), nil
		}
	case pivot.DateTimeRule:
		return dateBucket(r.Granularity, raw), nil
	default:
		return "", fmt.Errorf("unsupported grouping rule %T", rule)
	}
}

func dateBucket(granularity pivot.DateTimeGranularity, raw string) string {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, raw); err != nil {
			return raw
		}
	}
	switch granularity {
	case pivot.GranularityYear:
		return t.Format("2006")
	case pivot.GranularityMonth:
		return t.Format("January")
	case pivot.GranularityYearMonth:
		return t.Format("2006-01")
	case pivot.GranularityQuarter:
		return fmt.Sprintf("Q%d", (int(t.Month())-1)/3+1)
	case pivot.GranularityYearQuarter:
		return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	case pivot.GranularityYearMonthDay:
		return t.Format("2006-01-02")
	case pivot.GranularityDayOfWeek:
		return t.Format("Monday")
	case pivot.GranularityDayOfMonth:
		return strconv.Itoa(t.Day())
	case pivot.GranularityDayOfYear:
		return strconv.Itoa(t.YearDay())
	case pivot.GranularityDayMonth:
		return t.Format("02-Jan")
	default:
		return raw
	}
}

// aggregate applies one value's summarize function to its source
// column over the given rows.
func (p *Preview) aggregate(v *pivot.Value, data [][]string, rowIdxs []int) (Aggregate, error) {
	if v.SourceColumnOffset == nil {
		return Aggregate{}, fmt.Errorf("preview supports only sourceColumnOffset values")
	}
	if v.Summarize == pivot.SummarizeCustom {
		return Aggregate{}, fmt.Errorf("CUSTOM summarize function cannot be previewed")
	}
	col := *v.SourceColumnOffset

	var numbers []float64
	var nonEmpty int
	unique := make(map[string]bool)
	for _, i := range rowIdxs {
		if col >= int64(len(data[i])) {
			continue
		}
		cell := data[i][col]
		if cell == "" {
			continue
		}
		nonEmpty++
		unique[cell] = true
		if n, err := strconv.ParseFloat(cell, 64); err == nil {
			numbers = append(numbers, n)
		}
	}

	result, err := applyFunction(v.Summarize, numbers, nonEmpty, len(unique))
	if err != nil {
		return Aggregate{}, err
	}
	return Aggregate{Name: v.Name, Function: v.Summarize, Result: result}, nil
}

func applyFunction(fn pivot.SummarizeFunction, numbers []float64, nonEmpty, uniqueCount int) (float64, error) {
	switch fn {
	case pivot.SummarizeCount:
		return float64(len(numbers)), nil
	case pivot.SummarizeCountA:
		return float64(nonEmpty), nil
	case pivot.SummarizeCountUnique:
		return float64(uniqueCount), nil
	case pivot.SummarizeProduct:
		product := 1.0
		for _, n := range numbers {
			product *= n
		}
		return product, nil
	}

	if len(numbers) == 0 {
		return 0, nil
	}
	switch fn {
	case pivot.SummarizeSum:
		return stats.Sum(numbers)
	case pivot.SummarizeAverage:
		return stats.Mean(numbers)
	case pivot.SummarizeMedian:
		return stats.Median(numbers)
	case pivot.SummarizeMax:
		return stats.Max(numbers)
	case pivot.SummarizeMin:
		return stats.Min(numbers)
	case pivot.SummarizeStdDev:
		return stats.StandardDeviationSample(numbers)
	case pivot.SummarizeStdDevP:
		return stats.StandardDeviationPopulation(numbers)
	case pivot.SummarizeVar:
		return stats.SampleVariance(numbers)
	case pivot.SummarizeVarP:
		return stats.PopulationVariance(numbers)
	default:
		return 0, fmt.Errorf("unsupported summarize function %s", fn)
	}
}

// HistogramCounts bins a numeric column of the source range per a
// histogram rule and returns the per-interval row counts. Values
// outside [Start, End) are clamped into the edge intervals.
func HistogramCounts(rule pivot.HistogramRule, values []float64) []float64 {
	n := int((rule.End-rule.Start)/rule.Interval + 0.5)
	if n < 1 {
		n = 1
	}
	dividers := make([]float64, n+1)
	for i := range dividers {
		dividers[i] = rule.Start + float64(i)*rule.Interval
	}
	dividers[n] = rule.End

	clamped := make([]float64, 0, len(values))
	for _, v := range values {
		if v < rule.Start {
			v = rule.Start
		}
		if v >= rule.End {
			v = rule.End - rule.Interval/1e9
		}
		clamped = append(clamped, v)
	}
	sort.Float64s(clamped)
	return stat.Histogram(nil, dividers, clamped, nil)
}

func sortedKeys(m map[string][]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// rawString unwraps an opaque wire value when it is a plain JSON
// string; anything else renders as its compact JSON text.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
