package experiment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return &d
}

func TestValidateDateRangeRejectsInvertedBoundsWithoutDateFor(t *testing.T) {
	e := &Experiment{
		DateFrom: mustDate(t, "2026-01-10"),
		DateTo:   mustDate(t, "2026-01-01"),
	}
	err := e.ValidateDateRange()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date_from must not be after date_to")
}

func TestValidateDateRangeAcceptsOrderedBoundsWithoutDateFor(t *testing.T) {
	e := &Experiment{
		DateFrom: mustDate(t, "2026-01-01"),
		DateTo:   mustDate(t, "2026-01-10"),
	}
	assert.NoError(t, e.ValidateDateRange())
}

func TestValidateDateRangeAllowsEitherBoundAlone(t *testing.T) {
	assert.NoError(t, (&Experiment{DateFrom: mustDate(t, "2026-01-01")}).ValidateDateRange())
	assert.NoError(t, (&Experiment{DateTo: mustDate(t, "2026-01-01")}).ValidateDateRange())
	assert.NoError(t, (&Experiment{}).ValidateDateRange())
}

func TestValidateDateRangeRequiresBothBoundsWithDateFor(t *testing.T) {
	e := &Experiment{DateFor: mustDate(t, "2026-01-05")}
	err := e.ValidateDateRange()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date_for requires both date_from and date_to")
}

func TestValidateDateRangeRejectsDateForOutOfRange(t *testing.T) {
	e := &Experiment{
		DateFrom: mustDate(t, "2026-01-01"),
		DateTo:   mustDate(t, "2026-01-10"),
		DateFor:  mustDate(t, "2026-02-01"),
	}
	err := e.ValidateDateRange()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date_for must lie within")
}

func TestValidateDateRangeAcceptsDateForWithinRange(t *testing.T) {
	e := &Experiment{
		DateFrom: mustDate(t, "2026-01-01"),
		DateTo:   mustDate(t, "2026-01-10"),
		DateFor:  mustDate(t, "2026-01-05"),
	}
	assert.NoError(t, e.ValidateDateRange())
}
