package stats

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// BreakLog is a single break inside a shift. Either end may be missing.
type BreakLog struct {
	BreakStart *time.Time
	BreakEnd   *time.Time
}

// AttendanceRecord is one shift as read from the record source.
// WorkEnd is nil while the shift is still in progress.
type AttendanceRecord struct {
	ID        string
	UserID    string
	WorkStart *time.Time
	WorkEnd   *time.Time
	Approved  bool
	BreakLogs []BreakLog
}

// DateRange is a closed interval; End is the last millisecond of the final day.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies in [Start, End].
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

type Ranges struct {
	LastSevenDays DateRange `json:"lastSevenDays"`
	ThisWeek      DateRange `json:"thisWeek"`
	ThisMonth     DateRange `json:"thisMonth"`
}

// EarliestStart returns the lowest start of the three ranges.
func (r Ranges) EarliestStart() time.Time {
	earliest := r.LastSevenDays.Start
	if r.ThisWeek.Start.Before(earliest) {
		earliest = r.ThisWeek.Start
	}
	if r.ThisMonth.Start.Before(earliest) {
		earliest = r.ThisMonth.Start
	}
	return earliest
}

// MinuteBucket holds worked minutes split by approval.
// Total always equals Approved + Unapproved.
type MinuteBucket struct {
	Total      int64 `json:"total"`
	Approved   int64 `json:"approved"`
	Unapproved int64 `json:"unapproved"`
}

func (b *MinuteBucket) Add(minutes int64, approved bool) {
	b.Total += minutes
	if approved {
		b.Approved += minutes
	} else {
		b.Unapproved += minutes
	}
}

// Anomaly marks a complete record whose net minutes came out negative.
type Anomaly struct {
	RecordID   string
	NetMinutes int64
}

// Aggregation is the output of one aggregation pass.
type Aggregation struct {
	Weekly        MinuteBucket
	LastSevenDays MinuteBucket
	Monthly       MinuteBucket

	Skipped   int
	Anomalies []Anomaly
}

// Income is the monthly wage estimate in the profile currency, floored to whole units.
type Income struct {
	Total      int64           `json:"total"`
	Approved   int64           `json:"approved"`
	Unapproved int64           `json:"unapproved"`
	HourlyWage decimal.Decimal `json:"hourlyWage"`
	Currency   string          `json:"currency"`
}

// DisplayIncome is Income re-expressed in a foreign currency.
type DisplayIncome struct {
	Currency       string          `json:"currency"`
	Rate           decimal.Decimal `json:"rate"`
	Total          decimal.Decimal `json:"total"`
	Approved       decimal.Decimal `json:"approved"`
	Unapproved     decimal.Decimal `json:"unapproved"`
	FormattedTotal string          `json:"formattedTotal"`
}

// jsonNumber renders d as a bare JSON number with its exact digits.
func jsonNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// MarshalJSON writes HourlyWage as a number.
func (i Income) MarshalJSON() ([]byte, error) {
	type plain Income
	return json.Marshal(struct {
		plain
		HourlyWage json.Number `json:"hourlyWage"`
	}{plain(i), jsonNumber(i.HourlyWage)})
}

// MarshalJSON writes the rate and amounts as numbers.
func (d DisplayIncome) MarshalJSON() ([]byte, error) {
	type plain DisplayIncome
	return json.Marshal(struct {
		plain
		Rate       json.Number `json:"rate"`
		Total      json.Number `json:"total"`
		Approved   json.Number `json:"approved"`
		Unapproved json.Number `json:"unapproved"`
	}{plain(d), jsonNumber(d.Rate), jsonNumber(d.Total), jsonNumber(d.Approved), jsonNumber(d.Unapproved)})
}

type Stats struct {
	Weekly        MinuteBucket   `json:"weekly"`
	LastSevenDays MinuteBucket   `json:"lastSevenDays"`
	Monthly       MinuteBucket   `json:"monthly"`
	Income        Income         `json:"income"`
	Display       *DisplayIncome `json:"display,omitempty"`
	Ranges        Ranges         `json:"ranges"`
}

// WageProfile is the wage configuration read from the employee profile.
type WageProfile struct {
	UserID     string
	HourlyWage decimal.Decimal
	Currency   string
}
