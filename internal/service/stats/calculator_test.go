package stats

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uniwork/uniwork-backend-go/internal/domain/stats"
)

var jst = time.FixedZone("JST", 9*60*60)

func at(y int, m time.Month, d, hh, mm int) *time.Time {
	t := time.Date(y, m, d, hh, mm, 0, 0, jst)
	return &t
}

func shift(id string, start, end *time.Time, approved bool, breaks ...stats.BreakLog) stats.AttendanceRecord {
	return stats.AttendanceRecord{
		ID:        id,
		UserID:    "user-1",
		WorkStart: start,
		WorkEnd:   end,
		Approved:  approved,
		BreakLogs: breaks,
	}
}

func brk(start, end *time.Time) stats.BreakLog {
	return stats.BreakLog{BreakStart: start, BreakEnd: end}
}

// ===== DATE RANGES =====

func TestComputeRanges_MidWeek(t *testing.T) {
	// Wednesday
	now := time.Date(2024, time.November, 13, 10, 0, 0, 0, jst)

	r := ComputeRanges(now)

	endOf := func(d int) time.Time {
		return time.Date(2024, time.November, d, 23, 59, 59, int(999*time.Millisecond), jst)
	}
	assert.True(t, r.ThisWeek.Start.Equal(time.Date(2024, time.November, 10, 0, 0, 0, 0, jst)))
	assert.True(t, r.ThisWeek.End.Equal(endOf(16)))
	assert.True(t, r.LastSevenDays.Start.Equal(time.Date(2024, time.November, 7, 0, 0, 0, 0, jst)))
	assert.True(t, r.LastSevenDays.End.Equal(endOf(13)))
	assert.True(t, r.ThisMonth.Start.Equal(time.Date(2024, time.November, 1, 0, 0, 0, 0, jst)))
	assert.True(t, r.ThisMonth.End.Equal(endOf(30)))
	assert.True(t, r.EarliestStart().Equal(r.ThisMonth.Start))
}

func TestComputeRanges_Boundaries(t *testing.T) {
	cases := []struct {
		name      string
		now       time.Time
		weekStart time.Time
		weekEnd   time.Time
		monthEnd  time.Time
		earliest  time.Time
	}{
		{
			name:      "sunday starts its own week",
			now:       time.Date(2024, time.November, 10, 0, 0, 0, 0, jst),
			weekStart: time.Date(2024, time.November, 10, 0, 0, 0, 0, jst),
			weekEnd:   time.Date(2024, time.November, 17, 0, 0, 0, 0, jst).Add(-time.Millisecond),
			monthEnd:  time.Date(2024, time.December, 1, 0, 0, 0, 0, jst).Add(-time.Millisecond),
			earliest:  time.Date(2024, time.November, 1, 0, 0, 0, 0, jst),
		},
		{
			name:      "saturday last millisecond",
			now:       time.Date(2024, time.November, 16, 23, 59, 59, int(999*time.Millisecond), jst),
			weekStart: time.Date(2024, time.November, 10, 0, 0, 0, 0, jst),
			weekEnd:   time.Date(2024, time.November, 17, 0, 0, 0, 0, jst).Add(-time.Millisecond),
			monthEnd:  time.Date(2024, time.December, 1, 0, 0, 0, 0, jst).Add(-time.Millisecond),
			earliest:  time.Date(2024, time.November, 1, 0, 0, 0, 0, jst),
		},
		{
			name:      "week spanning a year boundary",
			now:       time.Date(2025, time.January, 2, 9, 0, 0, 0, jst),
			weekStart: time.Date(2024, time.December, 29, 0, 0, 0, 0, jst),
			weekEnd:   time.Date(2025, time.January, 5, 0, 0, 0, 0, jst).Add(-time.Millisecond),
			monthEnd:  time.Date(2025, time.February, 1, 0, 0, 0, 0, jst).Add(-time.Millisecond),
			earliest:  time.Date(2024, time.December, 27, 0, 0, 0, 0, jst),
		},
		{
			name:      "leap february",
			now:       time.Date(2024, time.February, 20, 12, 0, 0, 0, jst),
			weekStart: time.Date(2024, time.February, 18, 0, 0, 0, 0, jst),
			weekEnd:   time.Date(2024, time.February, 25, 0, 0, 0, 0, jst).Add(-time.Millisecond),
			monthEnd:  time.Date(2024, time.March, 1, 0, 0, 0, 0, jst).Add(-time.Millisecond),
			earliest:  time.Date(2024, time.February, 1, 0, 0, 0, 0, jst),
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := ComputeRanges(c.now)
			assert.True(t, r.ThisWeek.Start.Equal(c.weekStart), "week start %s", r.ThisWeek.Start)
			assert.True(t, r.ThisWeek.End.Equal(c.weekEnd), "week end %s", r.ThisWeek.End)
			assert.True(t, r.ThisMonth.End.Equal(c.monthEnd), "month end %s", r.ThisMonth.End)
			assert.True(t, r.EarliestStart().Equal(c.earliest), "earliest %s", r.EarliestStart())
			assert.False(t, r.LastSevenDays.Start.After(r.LastSevenDays.End))
		})
	}
}

func TestComputeRanges_DaylightSavingKeepsMidnight(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// DST begins on this Sunday
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, ny)
	r := ComputeRanges(now)

	for _, start := range []time.Time{r.ThisWeek.Start, r.LastSevenDays.Start, r.ThisMonth.Start} {
		assert.Equal(t, 0, start.Hour())
		assert.Equal(t, 0, start.Minute())
	}
	assert.Equal(t, 10, r.ThisWeek.Start.Day())
	assert.Equal(t, 23, r.ThisWeek.End.Hour())
	assert.Equal(t, 16, r.ThisWeek.End.Day())
}

// ===== AGGREGATION =====

func TestNetMinutes_SubtractsBreaks(t *testing.T) {
	rec := shift("a", at(2024, 11, 13, 9, 0), at(2024, 11, 13, 18, 0), true,
		brk(at(2024, 11, 13, 12, 0), at(2024, 11, 13, 13, 0)),
	)

	net, ok := NetMinutes(rec)
	require.True(t, ok)
	assert.Equal(t, int64(480), net)
}

func TestNetMinutes_IncompleteBreakIgnored(t *testing.T) {
	rec := shift("a", at(2024, 11, 13, 9, 0), at(2024, 11, 13, 18, 0), true,
		brk(at(2024, 11, 13, 12, 0), nil),
		brk(nil, at(2024, 11, 13, 15, 0)),
		brk(at(2024, 11, 13, 15, 0), at(2024, 11, 13, 15, 15)),
	)

	net, ok := NetMinutes(rec)
	require.True(t, ok)
	assert.Equal(t, int64(525), net)
}

func TestNetMinutes_RoundsEachSegmentBeforeSubtracting(t *testing.T) {
	start := time.Date(2024, time.November, 13, 9, 0, 0, 0, jst)
	end := start.Add(60*time.Minute + 30*time.Second)  // 60.5 -> 61
	bStart := start.Add(10 * time.Minute)
	bEnd := bStart.Add(10*time.Minute + 30*time.Second) // 10.5 -> 11
	rec := shift("a", &start, &end, false, brk(&bStart, &bEnd))

	net, ok := NetMinutes(rec)
	require.True(t, ok)
	assert.Equal(t, int64(50), net)

	bEnd2 := bStart.Add(10*time.Minute + 29*time.Second) // 10.48 -> 10
	rec2 := shift("b", &start, &end, false, brk(&bStart, &bEnd2))
	net2, _ := NetMinutes(rec2)
	assert.Equal(t, int64(51), net2) // unrounded net is 50.02
}

func TestRoundMinutes(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want int64
	}{
		{0, 0},
		{29999 * time.Millisecond, 0},
		{30 * time.Second, 1},
		{89999 * time.Millisecond, 1},
		{90 * time.Second, 2},
		{-30 * time.Second, 0},
		{-30001 * time.Millisecond, -1},
		{-90 * time.Second, -1},
		{-91 * time.Second, -2},
	}
	for _, c := range cases {
		got := roundMinutes(c.in)
		if got != c.want {
			t.Errorf("roundMinutes(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestAggregate_SkipsIncompleteRecords(t *testing.T) {
	ranges := ComputeRanges(time.Date(2024, time.November, 13, 10, 0, 0, 0, jst))
	records := []stats.AttendanceRecord{
		shift("open", at(2024, 11, 13, 9, 0), nil, true),
		shift("no-start", nil, at(2024, 11, 13, 18, 0), true),
	}

	agg := Aggregate(records, ranges)

	assert.Equal(t, stats.MinuteBucket{}, agg.Weekly)
	assert.Equal(t, stats.MinuteBucket{}, agg.LastSevenDays)
	assert.Equal(t, stats.MinuteBucket{}, agg.Monthly)
	assert.Equal(t, 2, agg.Skipped)
	assert.Empty(t, agg.Anomalies)
}

func TestAggregate_ClosedIntervalBoundaries(t *testing.T) {
	ranges := ComputeRanges(time.Date(2024, time.November, 13, 10, 0, 0, 0, jst))

	weekStart := ranges.ThisWeek.Start
	weekStartEnd := weekStart.Add(time.Hour)
	weekEnd := ranges.ThisWeek.End
	weekEndEnd := weekEnd.Add(time.Hour)
	beforeWeek := weekStart.Add(-time.Millisecond)
	beforeWeekEnd := beforeWeek.Add(time.Hour)
	afterWeek := weekEnd.Add(time.Millisecond)
	afterWeekEnd := afterWeek.Add(time.Hour)

	records := []stats.AttendanceRecord{
		shift("at-start", &weekStart, &weekStartEnd, true),
		shift("at-end", &weekEnd, &weekEndEnd, false),
		shift("before", &beforeWeek, &beforeWeekEnd, true),
		shift("after", &afterWeek, &afterWeekEnd, true),
	}

	agg := Aggregate(records, ranges)

	assert.Equal(t, stats.MinuteBucket{Total: 120, Approved: 60, Unapproved: 60}, agg.Weekly)
	// Nov 9 23:59:59.999 and Nov 17 00:00 are both inside November
	assert.Equal(t, int64(240), agg.Monthly.Total)
}

func TestAggregate_OverlappingRangesCountIndependently(t *testing.T) {
	ranges := ComputeRanges(time.Date(2024, time.November, 13, 10, 0, 0, 0, jst))
	records := []stats.AttendanceRecord{
		// Tue Nov 12: in week, last seven, month
		shift("a", at(2024, 11, 12, 9, 0), at(2024, 11, 12, 17, 0), true),
		// Fri Nov 8: in last seven and month, not this week
		shift("b", at(2024, 11, 8, 9, 0), at(2024, 11, 8, 10, 0), false),
		// Nov 2: month only
		shift("c", at(2024, 11, 2, 9, 0), at(2024, 11, 2, 9, 30), true),
		// Oct 31: nothing
		shift("d", at(2024, 10, 31, 9, 0), at(2024, 10, 31, 18, 0), true),
	}

	agg := Aggregate(records, ranges)

	assert.Equal(t, stats.MinuteBucket{Total: 480, Approved: 480}, agg.Weekly)
	assert.Equal(t, stats.MinuteBucket{Total: 540, Approved: 480, Unapproved: 60}, agg.LastSevenDays)
	assert.Equal(t, stats.MinuteBucket{Total: 570, Approved: 510, Unapproved: 60}, agg.Monthly)
}

func TestAggregate_OvernightShiftBelongsToStartDay(t *testing.T) {
	ranges := ComputeRanges(time.Date(2024, time.November, 30, 10, 0, 0, 0, jst))
	records := []stats.AttendanceRecord{
		shift("night", at(2024, 11, 30, 22, 0), at(2024, 12, 1, 6, 0), true),
	}

	agg := Aggregate(records, ranges)

	assert.Equal(t, int64(480), agg.Monthly.Total)
}

func TestAggregate_NegativeNetIsReportedNotClamped(t *testing.T) {
	ranges := ComputeRanges(time.Date(2024, time.November, 13, 10, 0, 0, 0, jst))
	records := []stats.AttendanceRecord{
		shift("ok", at(2024, 11, 13, 9, 0), at(2024, 11, 13, 10, 0), true),
		shift("long-break", at(2024, 11, 13, 11, 0), at(2024, 11, 13, 11, 30), true,
			brk(at(2024, 11, 13, 11, 0), at(2024, 11, 13, 12, 0)),
		),
	}

	agg := Aggregate(records, ranges)

	assert.Equal(t, int64(30), agg.Weekly.Total)
	require.Len(t, agg.Anomalies, 1)
	assert.Equal(t, stats.Anomaly{RecordID: "long-break", NetMinutes: -30}, agg.Anomalies[0])
}

func TestAggregate_BucketsAlwaysAdditive(t *testing.T) {
	now := time.Date(2024, time.November, 13, 10, 0, 0, 0, jst)
	ranges := ComputeRanges(now)

	var records []stats.AttendanceRecord
	base := time.Date(2024, time.October, 20, 7, 3, 17, 0, jst)
	for i := 0; i < 120; i++ {
		start := base.Add(time.Duration(i) * 7 * time.Hour)
		end := start.Add(time.Duration(30+i*13%500) * time.Minute)
		bs := start.Add(time.Duration(i%45) * time.Minute)
		be := bs.Add(time.Duration(i*7%61) * time.Second * 59)
		rec := shift("r", &start, &end, i%3 != 0, brk(&bs, &be))
		if i%11 == 0 {
			rec.WorkEnd = nil
		}
		records = append(records, rec)
	}

	agg := Aggregate(records, ranges)

	for name, b := range map[string]stats.MinuteBucket{
		"weekly":        agg.Weekly,
		"lastSevenDays": agg.LastSevenDays,
		"monthly":       agg.Monthly,
	} {
		assert.Equal(t, b.Approved+b.Unapproved, b.Total, name)
	}
	assert.NotZero(t, agg.Monthly.Total)
}

// ===== INCOME =====

func TestComputeIncome_SumOfFlooredParts(t *testing.T) {
	monthly := stats.MinuteBucket{Total: 667, Approved: 333, Unapproved: 334}
	wage := decimal.NewFromInt(1000)

	income := ComputeIncome(monthly, wage, "JPY")

	assert.Equal(t, int64(5550), income.Approved)
	assert.Equal(t, int64(5566), income.Unapproved)
	assert.Equal(t, int64(11116), income.Total)
	assert.Equal(t, income.Approved+income.Unapproved, income.Total)
	assert.True(t, income.HourlyWage.Equal(wage))
	assert.Equal(t, "JPY", income.Currency)

	independent := IndependentTotal(monthly, wage)
	assert.InDelta(t, income.Total, independent, 1)
}

func TestComputeIncome_ConventionPinned(t *testing.T) {
	// 30/h is half a unit per minute: each part floors to 0, the whole to 1
	monthly := stats.MinuteBucket{Total: 2, Approved: 1, Unapproved: 1}
	wage := decimal.NewFromInt(30)

	income := ComputeIncome(monthly, wage, "JPY")

	assert.Equal(t, int64(0), income.Total)
	assert.Equal(t, int64(1), IndependentTotal(monthly, wage))
}

func TestComputeIncome_ZeroWage(t *testing.T) {
	income := ComputeIncome(stats.MinuteBucket{Total: 600, Approved: 600}, decimal.Zero, "JPY")

	assert.Equal(t, stats.Income{HourlyWage: decimal.Zero, Currency: "JPY"}, income)
}

func TestComputeIncome_FractionalWage(t *testing.T) {
	// 1050.5/h over 90 minutes is 1575.75
	income := ComputeIncome(stats.MinuteBucket{Total: 90, Unapproved: 90}, decimal.RequireFromString("1050.5"), "JPY")

	assert.Equal(t, int64(1575), income.Unapproved)
	assert.Equal(t, int64(1575), income.Total)
}

// ===== CURRENCY =====

func TestConvertForDisplay(t *testing.T) {
	cases := []struct {
		name   string
		amount int64
		rate   string
		want   string
	}{
		{"small rate rounds to cents", 11116, "0.0067", "74.48"},
		{"small rate half up", 150, "0.0067", "1.01"},
		{"negative half rounds toward positive", -150, "0.0067", "-1.00"},
		{"negative below half rounds down", -151, "0.0067", "-1.01"},
		{"large rate floors", 100, "1.5", "150"},
		{"large rate floors fraction", 101, "1.55", "156"},
		{"parity is treated as large", 1234, "1", "1234"},
		{"zero amount", 0, "0.0067", "0"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ConvertForDisplay(c.amount, decimal.RequireFromString(c.rate))
			assert.True(t, got.Equal(decimal.RequireFromString(c.want)), "got %s", got)
		})
	}
}

func TestConvertIncome(t *testing.T) {
	income := stats.Income{Total: 11116, Approved: 5550, Unapproved: 5566, Currency: "JPY"}

	assert.Nil(t, ConvertIncome(income, "USD", nil))

	rate := decimal.RequireFromString("0.0067")
	display := ConvertIncome(income, "USD", &rate)
	require.NotNil(t, display)
	assert.Equal(t, "USD", display.Currency)
	assert.True(t, display.Total.Equal(decimal.RequireFromString("74.48")))
	assert.True(t, display.Approved.Equal(decimal.RequireFromString("37.19")))
	assert.True(t, display.Unapproved.Equal(decimal.RequireFromString("37.29")))
	assert.Equal(t, "USD 74.48", display.FormattedTotal)
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		amount string
		code   string
		want   string
	}{
		{"11116", "JPY", "JPY 11116"},
		{"74.1", "USD", "USD 74.10"},
		{"3", "EUR", "EUR 3.00"},
		{"12.5", "??", "?? 12.5"},
	}
	for _, c := range cases {
		got := FormatAmount(decimal.RequireFromString(c.amount), c.code)
		if got != c.want {
			t.Errorf("FormatAmount(%s, %s) = %q, want %q", c.amount, c.code, got, c.want)
		}
	}
}
