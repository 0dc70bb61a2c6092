package pivot

import (
	"encoding/json"
	"fmt"

	"gopivot/domain/core"
)

// GroupRule describes how a row/column grouping bucket is formed. It
// is a closed sum: the wire schema enumerates exactly three variants
// (manual, histogram, date-time), so no open-ended extension point is
// offered.
type GroupRule interface {
	isGroupRule()
	toWire() *GroupRuleWire
}

// ManualGroup is one named bucket of a manual rule. Group names and
// items are opaque wire values and round-trip byte-for-byte.
type ManualGroup struct {
	GroupName json.RawMessage   `json:"groupName,omitempty"`
	Items     []json.RawMessage `json:"items,omitempty"`
}

// ManualRule buckets values into an ordered list of explicit groups.
type ManualRule struct {
	Groups []ManualGroup
}

func (ManualRule) isGroupRule() {}

func (r ManualRule) toWire() *GroupRuleWire {
	groups := make([]ManualGroup, len(r.Groups))
	copy(groups, r.Groups)
	return &GroupRuleWire{Manual: &ManualRuleWire{Groups: groups}}
}

// HistogramRule buckets numeric values into fixed-width intervals
// between Start and End.
type HistogramRule struct {
	Interval float64
	Start    float64
	End      float64
}

// NewHistogramRule validates the numeric bounds: the interval must be
// positive and Start must not exceed End.
func NewHistogramRule(interval, start, end float64) (HistogramRule, error) {
	if interval <= 0 {
		return HistogramRule{}, fmt.Errorf("%w: histogram interval %v must be positive",
			core.ErrInvalidNumericRange, interval)
	}
	if start > end {
		return HistogramRule{}, fmt.Errorf("%w: histogram start %v exceeds end %v",
			core.ErrInvalidNumericRange, start, end)
	}
	return HistogramRule{Interval: interval, Start: start, End: end}, nil
}

func (HistogramRule) isGroupRule() {}

func (r HistogramRule) toWire() *GroupRuleWire {
	return &GroupRuleWire{Histogram: &HistogramRuleWire{
		IntervalSize: r.Interval,
		MinValue:     r.Start,
		MaxValue:     r.End,
	}}
}

// DateTimeGranularity enumerates the date/time bucketing units.
type DateTimeGranularity string

const (
	GranularitySecond       DateTimeGranularity = "SECOND"
	GranularityMinute       DateTimeGranularity = "MINUTE"
	GranularityHour         DateTimeGranularity = "HOUR"
	GranularityHourMinute   DateTimeGranularity = "HOUR_MINUTE"
	GranularityHourMinuteAM DateTimeGranularity = "HOUR_MINUTE_AMPM"
	GranularityDayOfWeek    DateTimeGranularity = "DAY_OF_WEEK"
	GranularityDayOfYear    DateTimeGranularity = "DAY_OF_YEAR"
	GranularityDayOfMonth   DateTimeGranularity = "DAY_OF_MONTH"
	GranularityDayMonth     DateTimeGranularity = "DAY_MONTH"
	GranularityMonth        DateTimeGranularity = "MONTH"
	GranularityQuarter      DateTimeGranularity = "QUARTER"
	GranularityYear         DateTimeGranularity = "YEAR"
	GranularityYearMonth    DateTimeGranularity = "YEAR_MONTH"
	GranularityYearQuarter  DateTimeGranularity = "YEAR_QUARTER"
	GranularityYearMonthDay DateTimeGranularity = "YEAR_MONTH_DAY"
)

var dateTimeGranularities = map[DateTimeGranularity]bool{
	GranularitySecond:       true,
	GranularityMinute:       true,
	GranularityHour:         true,
	GranularityHourMinute:   true,
	GranularityHourMinuteAM: true,
	GranularityDayOfWeek:    true,
	GranularityDayOfYear:    true,
	GranularityDayOfMonth:   true,
	GranularityDayMonth:     true,
	GranularityMonth:        true,
	GranularityQuarter:      true,
	GranularityYear:         true,
	GranularityYearMonth:    true,
	GranularityYearQuarter:  true,
	GranularityYearMonthDay: true,
}

// ParseDateTimeGranularity validates a wire tag against the closed
// enum. Unknown tags are surfaced, never defaulted.
func ParseDateTimeGranularity(s string) (DateTimeGranularity, error) {
	g := DateTimeGranularity(s)
	if !dateTimeGranularities[g] {
		return "", core.NewUnrecognizedVariantError("dateTimeRule.type", s)
	}
	return g, nil
}

// DateTimeRule buckets date/time values by a single granularity unit.
type DateTimeRule struct {
	Granularity DateTimeGranularity
}

// NewDateTimeRule validates the granularity against the closed enum.
func NewDateTimeRule(granularity DateTimeGranularity) (DateTimeRule, error) {
	if _, err := ParseDateTimeGranularity(string(granularity)); err != nil {
		return DateTimeRule{}, err
	}
	return DateTimeRule{Granularity: granularity}, nil
}

func (DateTimeRule) isGroupRule() {}

func (r DateTimeRule) toWire() *GroupRuleWire {
	return &GroupRuleWire{DateTime: &DateTimeRuleWire{Type: string(r.Granularity)}}
}

// ruleFromWire decodes a wire rule envelope into the matching variant.
// An envelope with no recognized variant key fails with
// UnrecognizedVariant; one with more than one fails with
// AmbiguousUnion.
func ruleFromWire(w *GroupRuleWire) (GroupRule, error) {
	if w == nil {
		return nil, nil
	}
	set := 0
	if w.Manual != nil {
		set++
	}
	if w.Histogram != nil {
		set++
	}
	if w.DateTime != nil {
		set++
	}
	switch {
	case set == 0:
		return nil, core.NewUnrecognizedVariantError("groupRule", "no known rule variant")
	case set > 1:
		return nil, core.NewAmbiguousUnionError("groupRule", "multiple rule variants present")
	}

	switch {
	case w.Manual != nil:
		groups := make([]ManualGroup, len(w.Manual.Groups))
		copy(groups, w.Manual.Groups)
		return ManualRule{Groups: groups}, nil
	case w.Histogram != nil:
		rule, err := NewHistogramRule(w.Histogram.IntervalSize, w.Histogram.MinValue, w.Histogram.MaxValue)
		if err != nil {
			return nil, err
		}
		return rule, nil
	default:
		granularity, err := ParseDateTimeGranularity(w.DateTime.Type)
		if err != nil {
			return nil, err
		}
		return DateTimeRule{Granularity: granularity}, nil
	}
}
