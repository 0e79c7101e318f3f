package rules

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestComputeDeadline_CalendarDays(t *testing.T) {
	cases := []struct {
		start string
		days  int
		want  string
	}{
		{"2024-01-20", 30, "2024-02-19"},
		{"2023-12-15", 30, "2024-01-14"},
		{"2024-02-20", 10, "2024-03-01"}, // leap year
		{"2023-02-20", 10, "2023-03-02"},
		{"2024-03-01", 60, "2024-04-30"},
	}
	for _, tc := range cases {
		t.Run(tc.start, func(t *testing.T) {
			got, err := ComputeDeadline(tc.start, DeadlineRule{DayCount: tc.days, Mode: CalendarDays, Citation: "x"})
			require.NoError(t, err)
			assert.Equal(t, tc.want, FormatDate(got))
		})
	}
}

func TestComputeDeadline_CourtDaysSkipsWeekends(t *testing.T) {
	got, err := ComputeDeadline("2024-03-01", DeadlineRule{DayCount: 9, Mode: CourtDays, Citation: "x"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-14", FormatDate(got))

	got, err = ComputeDeadline("2024-03-01", DeadlineRule{DayCount: 16, Mode: CourtDays, Citation: "x"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-25", FormatDate(got))
}

func TestComputeDeadline_CourtDaysProperty(t *testing.T) {
	start := date(t, "2024-01-01")
	for offset := 0; offset < 21; offset++ {
		from := start.AddDate(0, 0, offset)
		for n := 1; n <= 20; n++ {
			got, err := ComputeDeadline(FormatDate(from), DeadlineRule{DayCount: n, Mode: CourtDays, Citation: "x"})
			require.NoError(t, err)
			require.False(t, IsWeekend(got), "%s + %d court days landed on a weekend", FormatDate(from), n)

			weekdays := 0
			for d := from.AddDate(0, 0, 1); !d.After(got); d = d.AddDate(0, 0, 1) {
				if !IsWeekend(d) {
					weekdays++
				}
			}
			require.Equal(t, n, weekdays)
		}
	}
}

func TestComputeDeadline_InvalidDate(t *testing.T) {
	for _, in := range []string{"", "03/01/2024", "2024-3-1", "2024-02-30", "2024-13-01", "tomorrow"} {
		_, err := ComputeDeadline(in, DeadlineRule{DayCount: 5, Mode: CalendarDays, Citation: "x"})
		assert.True(t, errors.Is(err, ErrInvalidDate), "input %q", in)
	}
}

func TestAddCourtDays_Backwards(t *testing.T) {
	// Monday minus one court day is the previous Friday
	got := AddCourtDays(date(t, "2024-03-11"), -1)
	assert.Equal(t, "2024-03-08", FormatDate(got))
}

func TestCalculator_Compute(t *testing.T) {
	calc := NewCalculator(California())

	c, err := calc.Compute("motion_opposition", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-14", FormatDate(c.Due))
	assert.Equal(t, "CCP § 1005(b)", c.Rule.Citation)
	assert.Contains(t, c.Summary(), "9 court days")

	c, err = calc.Compute("answer_complaint", "2024-01-20")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-19", FormatDate(c.Due))

	_, err = calc.Compute("bogus", "2024-01-20")
	assert.ErrorIs(t, err, ErrUnknownDeadlineType)

	_, err = calc.Compute("answer_complaint", "01/20/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestCalifornia_TableSizes(t *testing.T) {
	tables := California()
	assert.Len(t, tables.DeadlineTypes(), 13)
	assert.Len(t, tables.CaseTypes(), 12)

	rule, err := tables.Deadline("notice_of_appeal")
	require.NoError(t, err)
	assert.Equal(t, 60, rule.DayCount)
	assert.Equal(t, "CRC 8.104(a)(1)", rule.Citation)

	sol, err := tables.Limitation("breach_of_written_contract")
	require.NoError(t, err)
	assert.Equal(t, 4, sol.Years)
}
