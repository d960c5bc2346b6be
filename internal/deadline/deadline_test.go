package deadline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/pqrsd-service/internal/domain"
)

func TestBusinessDays(t *testing.T) {
	assert.Equal(t, 15, BusinessDays(domain.CaseTypePetition))
	assert.Equal(t, 15, BusinessDays(domain.CaseTypeComplaint))
	assert.Equal(t, 15, BusinessDays(domain.CaseTypeClaim))
	assert.Equal(t, 30, BusinessDays(domain.CaseTypeSuggestion))
	assert.Equal(t, 30, BusinessDays(domain.CaseTypeDenunciation))
}

func TestDueDateSkipsWeekends(t *testing.T) {
	// Friday 2024-03-01. Fifteen business days later is Friday 2024-03-22.
	from := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.Equal(t, time.Friday, from.Weekday())

	due := DueDate(domain.CaseTypePetition, from)
	assert.Equal(t, time.Date(2024, 3, 22, 10, 0, 0, 0, time.UTC), due)
}

func TestDueDateNeverLandsOnWeekend(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	for day := 0; day < 14; day++ {
		from := start.AddDate(0, 0, day)
		for _, caseType := range domain.CaseTypes {
			due := DueDate(caseType, from)
			assert.NotEqual(t, time.Saturday, due.Weekday(), "from %s type %s", from, caseType)
			assert.NotEqual(t, time.Sunday, due.Weekday(), "from %s type %s", from, caseType)
			assert.True(t, due.After(from))
		}
	}
}

func TestDueDateCountsExactBusinessDays(t *testing.T) {
	// Monday 2024-04-01 plus 30 business days is Monday 2024-05-13.
	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Monday, from.Weekday())

	due := DueDate(domain.CaseTypeSuggestion, from)
	assert.Equal(t, time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC), due)
}

func TestDueDateLongerTermForSuggestions(t *testing.T) {
	from := time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC)
	petition := DueDate(domain.CaseTypePetition, from)
	suggestion := DueDate(domain.CaseTypeSuggestion, from)
	assert.True(t, suggestion.After(petition))
}
