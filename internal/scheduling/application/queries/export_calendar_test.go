package queries

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	sharedDomain "github.com/c0rreagui/slotline/internal/shared/domain"
)

func TestExportCalendarHandler_UpcomingOnly(t *testing.T) {
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	pending := eventWithStatus("creator-a", base, domain.StatusPending)
	posted := eventWithStatus("creator-a", base.Add(-24*time.Hour), domain.StatusPosted)

	repo := new(mockEventRepo)
	repo.On("FindAll", mock.Anything).Return([]*domain.ScheduledEvent{pending, posted}, nil)

	handler := NewExportCalendarHandler(repo)
	ics, err := handler.Handle(context.Background(), ExportCalendarQuery{})

	require.NoError(t, err)
	assert.Contains(t, ics, "BEGIN:VCALENDAR")
	assert.Contains(t, ics, "PRODID:-//slotline//publish queue//EN")
	assert.Contains(t, ics, pending.ID().String())
	assert.NotContains(t, ics, posted.ID().String())
	repo.AssertExpectations(t)
}

func TestExportCalendarHandler_IncludeHistory(t *testing.T) {
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	pending := eventWithStatus("creator-a", base, domain.StatusPending)
	posted := eventWithStatus("creator-a", base.Add(-24*time.Hour), domain.StatusPosted)

	repo := new(mockEventRepo)
	repo.On("FindAll", mock.Anything).Return([]*domain.ScheduledEvent{pending, posted}, nil)

	handler := NewExportCalendarHandler(repo)
	ics, err := handler.Handle(context.Background(), ExportCalendarQuery{IncludeHistory: true})

	require.NoError(t, err)
	assert.Contains(t, ics, pending.ID().String())
	assert.Contains(t, ics, posted.ID().String())
	assert.Contains(t, ics, "STATUS:CONFIRMED")
	assert.Contains(t, ics, "STATUS:TENTATIVE")
}

func TestExportCalendarHandler_FiltersByProfile(t *testing.T) {
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	profile := sharedDomain.NewProfileID("creator-a")
	event := eventWithStatus("creator-a", base, domain.StatusPending)

	repo := new(mockEventRepo)
	repo.On("FindByProfile", mock.Anything, profile).Return([]*domain.ScheduledEvent{event}, nil)

	handler := NewExportCalendarHandler(repo)
	ics, err := handler.Handle(context.Background(), ExportCalendarQuery{ProfileID: profile})

	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(ics, "BEGIN:VEVENT"))
	repo.AssertExpectations(t)
}
