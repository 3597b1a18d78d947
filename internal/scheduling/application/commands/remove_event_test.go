package commands

import (
	"context"
	"testing"
	"time"

	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	"github.com/c0rreagui/slotline/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRemoveEventHandler_RemovesRemoteAndLocal(t *testing.T) {
	event := pendingEventAt("creator-a", time.Now().Add(time.Hour))

	backend := new(mockBackend)
	backend.On("DeleteEvent", mock.Anything, event.RemoteID()).Return(nil)

	repo := new(mockEventRepo)
	repo.On("FindByID", mock.Anything, event.ID()).Return(event, nil)
	repo.On("Delete", mock.Anything, event.ID()).Return(nil)

	handler := NewRemoveEventHandler(backend, repo, nil)
	err := handler.Handle(context.Background(), RemoveEventCommand{EventID: event.ID()})
	require.NoError(t, err)

	backend.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestRemoveEventHandler_OfflineRemovesLocallyOnly(t *testing.T) {
	event := pendingEventAt("creator-a", time.Now().Add(time.Hour))

	repo := new(mockEventRepo)
	repo.On("FindByID", mock.Anything, event.ID()).Return(event, nil)
	repo.On("Delete", mock.Anything, event.ID()).Return(nil)

	handler := NewRemoveEventHandler(nil, repo, nil)
	err := handler.Handle(context.Background(), RemoveEventCommand{EventID: event.ID()})
	require.NoError(t, err)
}

func TestRemoveEventHandler_UnknownEvent(t *testing.T) {
	repo := new(mockEventRepo)
	repo.On("FindByID", mock.Anything, mock.Anything).Return(nil, nil)

	handler := NewRemoveEventHandler(nil, repo, nil)
	err := handler.Handle(context.Background(), RemoveEventCommand{EventID: uuid.New()})
	require.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestRemoveEventHandler_BackendFailureKeepsLocalCopy(t *testing.T) {
	event := pendingEventAt("creator-a", time.Now().Add(time.Hour))

	backend := new(mockBackend)
	backend.On("DeleteEvent", mock.Anything, event.RemoteID()).Return(context.DeadlineExceeded)

	repo := new(mockEventRepo)
	repo.On("FindByID", mock.Anything, event.ID()).Return(event, nil)

	handler := NewRemoveEventHandler(backend, repo, nil)
	err := handler.Handle(context.Background(), RemoveEventCommand{EventID: event.ID()})
	require.Error(t, err)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestRemoveEventHandler_RecordsRemovalMetric(t *testing.T) {
	event := pendingEventAt("creator-a", time.Now().Add(time.Hour))

	repo := new(mockEventRepo)
	repo.On("FindByID", mock.Anything, event.ID()).Return(event, nil)
	repo.On("Delete", mock.Anything, event.ID()).Return(nil)

	metrics := observability.NewInMemoryMetrics()
	handler := NewRemoveEventHandler(nil, repo, nil).WithMetrics(metrics)

	err := handler.Handle(context.Background(), RemoveEventCommand{EventID: event.ID()})
	require.NoError(t, err)

	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricEventsRemoved))
}
