package payroll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodTransitions(t *testing.T) {
	cases := []struct {
		from, to PeriodStatus
		ok       bool
	}{
		{PeriodDraft, PeriodProcessing, true},
		{PeriodDraft, PeriodApproved, true},
		{PeriodDraft, PeriodCancelled, true},
		{PeriodDraft, PeriodPaid, false},
		{PeriodProcessing, PeriodApproved, true},
		{PeriodProcessing, PeriodCancelled, true},
		{PeriodProcessing, PeriodDraft, false},
		{PeriodApproved, PeriodPaid, true},
		{PeriodApproved, PeriodApproved, false},
		{PeriodApproved, PeriodCancelled, false},
		{PeriodPaid, PeriodCancelled, false},
		{PeriodCancelled, PeriodDraft, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCalculable(t *testing.T) {
	assert.True(t, PeriodDraft.Calculable())
	assert.True(t, PeriodProcessing.Calculable())
	assert.False(t, PeriodApproved.Calculable())
	assert.False(t, PeriodPaid.Calculable())
	assert.False(t, PeriodCancelled.Calculable())
	assert.False(t, PeriodStatus("bogus").Calculable())
}

func TestParseStatuses(t *testing.T) {
	s, err := ParsePeriodStatus("processing")
	require.NoError(t, err)
	assert.Equal(t, PeriodProcessing, s)
	_, err = ParsePeriodStatus("finalized")
	assert.Error(t, err)

	r, err := ParseRecordStatus("paid")
	require.NoError(t, err)
	assert.Equal(t, RecordPaid, r)
	_, err = ParseRecordStatus("processing")
	assert.Error(t, err)
}

func TestWorkingDaysBetween(t *testing.T) {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 23, WorkingDaysBetween(jan, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)))
	sat := time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, WorkingDaysBetween(sat, sat.AddDate(0, 0, 1)))
	assert.Equal(t, 1, WorkingDaysBetween(jan, jan))
}
