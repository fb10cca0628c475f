package stats

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uniwork/uniwork-backend-go/internal/domain/stats"
	"golang.org/x/text/currency"
)

var (
	minutesPerHour = decimal.NewFromInt(60)
	one            = decimal.NewFromInt(1)
	half           = decimal.NewFromFloat(0.5)
)

// ========== DATE RANGES ==========

// ComputeRanges derives the last-7-days, this-week (Sunday to Saturday) and
// this-month windows around now, anchored to midnight in now's location.
func ComputeRanges(now time.Time) stats.Ranges {
	loc := now.Location()
	y, m, d := now.Date()
	sunday := d - int(now.Weekday())

	return stats.Ranges{
		LastSevenDays: stats.DateRange{
			Start: time.Date(y, m, d-6, 0, 0, 0, 0, loc),
			End:   endOfDay(y, m, d, loc),
		},
		ThisWeek: stats.DateRange{
			Start: time.Date(y, m, sunday, 0, 0, 0, 0, loc),
			End:   endOfDay(y, m, sunday+6, loc),
		},
		ThisMonth: stats.DateRange{
			Start: time.Date(y, m, 1, 0, 0, 0, 0, loc),
			// day 0 of next month normalizes to the last day of this one
			End: endOfDay(y, m+1, 0, loc),
		},
	}
}

// endOfDay returns one millisecond before the midnight that follows the given day.
func endOfDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc).Add(-time.Millisecond)
}

// ========== AGGREGATION ==========

// roundMinutes converts a duration to whole minutes, rounding half up at
// millisecond precision (-0.5 rounds to 0, -0.50001 to -1).
func roundMinutes(d time.Duration) int64 {
	n := d.Milliseconds() + 30_000
	q := n / 60_000
	if n%60_000 < 0 {
		q--
	}
	return q
}

// NetMinutes returns gross shift minutes minus break minutes. Gross and every
// break are rounded separately before subtracting. ok is false when the
// record lacks a start or an end.
func NetMinutes(rec stats.AttendanceRecord) (net int64, ok bool) {
	if rec.WorkStart == nil || rec.WorkEnd == nil {
		return 0, false
	}

	net = roundMinutes(rec.WorkEnd.Sub(*rec.WorkStart))
	for _, b := range rec.BreakLogs {
		if b.BreakStart == nil || b.BreakEnd == nil {
			continue
		}
		net -= roundMinutes(b.BreakEnd.Sub(*b.BreakStart))
	}
	return net, true
}

// Aggregate sums net minutes of every complete record into each range whose
// closed interval contains the record's work start. Negative net minutes are
// kept as-is and reported in Anomalies.
func Aggregate(records []stats.AttendanceRecord, ranges stats.Ranges) stats.Aggregation {
	var agg stats.Aggregation

	for _, rec := range records {
		net, ok := NetMinutes(rec)
		if !ok {
			agg.Skipped++
			continue
		}
		if net < 0 {
			agg.Anomalies = append(agg.Anomalies, stats.Anomaly{RecordID: rec.ID, NetMinutes: net})
		}

		start := *rec.WorkStart
		if ranges.ThisWeek.Contains(start) {
			agg.Weekly.Add(net, rec.Approved)
		}
		if ranges.LastSevenDays.Contains(start) {
			agg.LastSevenDays.Add(net, rec.Approved)
		}
		if ranges.ThisMonth.Contains(start) {
			agg.Monthly.Add(net, rec.Approved)
		}
	}

	return agg
}

// ========== INCOME ==========

// wageFor returns floor(minutes * hourlyWage / 60).
func wageFor(minutes int64, hourlyWage decimal.Decimal) int64 {
	return decimal.NewFromInt(minutes).Mul(hourlyWage).Div(minutesPerHour).Floor().IntPart()
}

// ComputeIncome floors the approved and unapproved parts separately and
// reports their sum as Total.
func ComputeIncome(monthly stats.MinuteBucket, hourlyWage decimal.Decimal, currencyCode string) stats.Income {
	approved := wageFor(monthly.Approved, hourlyWage)
	unapproved := wageFor(monthly.Unapproved, hourlyWage)

	return stats.Income{
		Total:      approved + unapproved,
		Approved:   approved,
		Unapproved: unapproved,
		HourlyWage: hourlyWage,
		Currency:   currencyCode,
	}
}

// IndependentTotal floors the monthly total on its own. It can exceed
// ComputeIncome's Total by one unit.
func IndependentTotal(monthly stats.MinuteBucket, hourlyWage decimal.Decimal) int64 {
	return wageFor(monthly.Total, hourlyWage)
}

// ========== CURRENCY ==========

// ConvertForDisplay re-expresses amount with rate. A rate below 1 is read as
// foreign units per base unit and rounded to cents; otherwise the result is
// floored to whole units.
func ConvertForDisplay(amount int64, rate decimal.Decimal) decimal.Decimal {
	v := decimal.NewFromInt(amount).Mul(rate)
	if rate.LessThan(one) {
		return roundHalfUpCents(v)
	}
	return v.Floor()
}

// roundHalfUpCents rounds ties toward positive infinity, so -1.005 becomes
// -1.00 and 1.005 becomes 1.01.
func roundHalfUpCents(v decimal.Decimal) decimal.Decimal {
	return v.Shift(2).Add(half).Floor().Shift(-2)
}

// ConvertIncome returns nil when no rate is available.
func ConvertIncome(income stats.Income, target string, rate *decimal.Decimal) *stats.DisplayIncome {
	if rate == nil {
		return nil
	}

	total := ConvertForDisplay(income.Total, *rate)
	return &stats.DisplayIncome{
		Currency:       target,
		Rate:           *rate,
		Total:          total,
		Approved:       ConvertForDisplay(income.Approved, *rate),
		Unapproved:     ConvertForDisplay(income.Unapproved, *rate),
		FormattedTotal: FormatAmount(total, target),
	}
}

// FormatAmount renders "<ISO code> <amount>" with the currency's standard
// number of decimals. Unknown codes keep the amount as is.
func FormatAmount(amount decimal.Decimal, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return code + " " + amount.String()
	}

	scale, _ := currency.Standard.Rounding(unit)
	return unit.String() + " " + amount.StringFixed(int32(scale))
}
