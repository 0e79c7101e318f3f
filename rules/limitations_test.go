package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateLimitation(t *testing.T) {
	calc := NewCalculator(California())

	t.Run("warning just outside critical window", func(t *testing.T) {
		res, err := calc.EvaluateLimitation("personal_injury", "2022-01-01", date(t, "2023-12-01"))
		require.NoError(t, err)
		assert.Equal(t, "2024-01-01", FormatDate(res.ExpirationDate))
		assert.Equal(t, 31, res.DaysRemaining)
		assert.Equal(t, LimitationWarning, res.Status)
	})

	t.Run("expired", func(t *testing.T) {
		res, err := calc.EvaluateLimitation("personal_injury", "2022-01-01", date(t, "2024-02-01"))
		require.NoError(t, err)
		assert.Equal(t, -31, res.DaysRemaining)
		assert.Equal(t, LimitationExpired, res.Status)
	})

	t.Run("expires today is critical", func(t *testing.T) {
		res, err := calc.EvaluateLimitation("personal_injury", "2022-01-01", date(t, "2024-01-01"))
		require.NoError(t, err)
		assert.Equal(t, 0, res.DaysRemaining)
		assert.Equal(t, LimitationCritical, res.Status)
	})

	t.Run("calendar years across leap day", func(t *testing.T) {
		res, err := calc.EvaluateLimitation("defamation", "2020-02-29", date(t, "2020-03-01"))
		require.NoError(t, err)
		assert.Equal(t, "2021-03-01", FormatDate(res.ExpirationDate))
	})

	t.Run("unknown case type", func(t *testing.T) {
		_, err := calc.EvaluateLimitation("space_law", "2022-01-01", date(t, "2023-01-01"))
		assert.ErrorIs(t, err, ErrUnknownCaseType)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := calc.EvaluateLimitation("fraud", "Jan 1 2022", date(t, "2023-01-01"))
		assert.ErrorIs(t, err, ErrInvalidDate)
	})
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, LimitationExpired, StatusFor(-1))
	assert.Equal(t, LimitationCritical, StatusFor(0))
	assert.Equal(t, LimitationCritical, StatusFor(30))
	assert.Equal(t, LimitationWarning, StatusFor(31))
	assert.Equal(t, LimitationWarning, StatusFor(180))
	assert.Equal(t, LimitationOK, StatusFor(181))
}

func TestTrialSchedule(t *testing.T) {
	trial := date(t, "2024-06-03")
	today := date(t, "2024-05-01")

	items := TrialSchedule(trial, today)
	require.NotEmpty(t, items)
	for i, it := range items {
		assert.GreaterOrEqual(t, it.DaysUntil, 0)
		assert.True(t, it.Date.Before(trial))
		if i > 0 {
			assert.False(t, it.Date.Before(items[i-1].Date))
		}
	}

	var cutoff *ScheduledMilestone
	for i := range items {
		if items[i].Description == "Fact discovery cutoff" {
			cutoff = &items[i]
		}
	}
	require.NotNil(t, cutoff)
	assert.Equal(t, "2024-05-04", FormatDate(cutoff.Date))
	assert.True(t, cutoff.HasTopic(TopicDiscovery))
}

func TestParseTables(t *testing.T) {
	data := []byte(`
jurisdiction: Testland
deadlines:
  answer:
    day_count: 21
    mode: calendar_days
    citation: "TRCP 1"
    description: Answer due
statutes_of_limitations:
  tort:
    years: 3
    citation: "TC 2"
`)
	tables, err := ParseTables(data)
	require.NoError(t, err)
	assert.Equal(t, "Testland", tables.Jurisdiction())
	assert.Equal(t, []string{"answer"}, tables.DeadlineTypes())

	got, err := NewCalculator(tables).Compute("answer", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-22", FormatDate(got.Due))

	_, err = ParseTables([]byte("jurisdiction: X\ndeadlines:\n  a:\n    day_count: 3\n    mode: fortnights\n    citation: c\nstatutes_of_limitations:\n  b:\n    years: 1\n    citation: d\n"))
	assert.Error(t, err)
}
