package publisher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	sharedDomain "github.com/c0rreagui/slotline/internal/shared/domain"
	"github.com/c0rreagui/slotline/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(DefaultClientConfig(server.URL), nil)
}

func TestClient_ListEvents(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/scheduled-events", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id":"ev-1","profile_id":"p1","video_path":"videos/a.mp4","scheduled_time":"2024-05-01T10:00:00Z","status":"pending","viral_music_enabled":true,"music_volume":0.4},
			{"id":"ev-2","profile_id":"p2","video_path":"videos/b.mp4","scheduled_time":"2024-05-01T12:00:00Z","status":"failed","error_message":"session expired"}
		]`))
	})

	events, err := client.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "ev-1", events[0].RemoteID())
	assert.Equal(t, "p1", events[0].ProfileID().String())
	assert.Equal(t, domain.StatusPending, events[0].Status())
	assert.True(t, events[0].ViralMusicEnabled())
	assert.Equal(t, 0.4, events[0].MusicVolume())
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), events[0].ScheduledTime())

	assert.Equal(t, domain.StatusFailed, events[1].Status())
	assert.Equal(t, "session expired", events[1].ErrorMessage())
}

func TestClient_ListEvents_StableLocalIdentity(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"ev-1","profile_id":"p1","video_path":"a.mp4","scheduled_time":"2024-05-01T10:00:00Z","status":"pending"}]`))
	}
	client := newTestClient(t, handler)

	first, err := client.ListEvents(context.Background())
	require.NoError(t, err)
	second, err := client.ListEvents(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first[0].ID(), second[0].ID(), "same remote event keeps the same local ID across fetches")
}

func TestClient_CreateEvent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var dto EventDTO
		require.NoError(t, json.NewDecoder(r.Body).Decode(&dto))
		assert.Equal(t, "p1", dto.ProfileID)
		assert.Equal(t, "videos/new.mp4", dto.VideoPath)
		assert.Equal(t, "2024-05-01T10:30:00Z", dto.ScheduledTime)

		dto.ID = "ev-99"
		dto.Status = "pending"
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(dto)
	})

	candidate := domain.CandidateSlot{
		ProfileID:     sharedDomain.NewProfileID("p1"),
		ScheduledTime: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		MediaRef:      "videos/new.mp4",
	}

	event, err := client.CreateEvent(context.Background(), candidate, false, 0)
	require.NoError(t, err)
	assert.Equal(t, "ev-99", event.RemoteID())
	assert.Equal(t, domain.StatusPending, event.Status())
}

func TestClient_CreateEvent_RemoteConflict(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"slot already booked","suggested_time":"2024-05-01T11:00:00Z"}`))
	})

	candidate := domain.CandidateSlot{
		ProfileID:     sharedDomain.NewProfileID("p1"),
		ScheduledTime: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		MediaRef:      "videos/new.mp4",
	}

	_, err := client.CreateEvent(context.Background(), candidate, false, 0)

	var conflict *RemoteConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "slot already booked", conflict.Message)
	require.NotNil(t, conflict.SuggestedTime)
	assert.Equal(t, time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC), *conflict.SuggestedTime)
}

func TestClient_UpdateEvent_PartialPatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/scheduled-events/ev-1", r.URL.Path)

		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.Equal(t, "2024-05-02T09:00:00Z", raw["scheduled_time"])
		assert.NotContains(t, raw, "profile_id", "untouched fields stay out of the patch")

		_, _ = w.Write([]byte(`{"id":"ev-1","profile_id":"p1","video_path":"a.mp4","scheduled_time":"2024-05-02T09:00:00Z","status":"pending"}`))
	})

	newTime := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	event, err := client.UpdateEvent(context.Background(), "ev-1", EventPatch{ScheduledTime: &newTime})
	require.NoError(t, err)
	assert.Equal(t, newTime, event.ScheduledTime())
}

func TestClient_DeleteEvent_IdempotentOnMissing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
	})

	assert.NoError(t, client.DeleteEvent(context.Background(), "ev-gone"))
}

func TestClient_RetryEvent_Modes(t *testing.T) {
	var gotMode string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/scheduled-events/ev-1/retry", r.URL.Path)
		var req retryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotMode = req.Mode
		_, _ = w.Write([]byte(`{"id":"ev-1","profile_id":"p1","video_path":"a.mp4","scheduled_time":"2024-05-01T10:00:00Z","status":"pending"}`))
	})

	_, err := client.RetryEvent(context.Background(), "ev-1", RetryNow)
	require.NoError(t, err)
	assert.Equal(t, "now", gotMode)

	_, err = client.RetryEvent(context.Background(), "ev-1", RetryNextSlot)
	require.NoError(t, err)
	assert.Equal(t, "next_slot", gotMode)
}

func TestClient_RecordsRequestMetrics(t *testing.T) {
	metrics := observability.NewInMemoryMetrics()

	var status int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		switch status {
		case http.StatusOK:
			_, _ = w.Write([]byte(`[]`))
		case http.StatusConflict:
			_, _ = w.Write([]byte(`{"message":"busy"}`))
		}
	}))
	t.Cleanup(server.Close)

	cfg := DefaultClientConfig(server.URL)
	cfg.Metrics = metrics
	client := NewClient(cfg, nil)

	status = http.StatusOK
	_, err := client.ListEvents(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricBackendRequests, observability.T("method", http.MethodGet)))
	assert.Len(t, metrics.GetTimings(observability.MetricBackendDuration, observability.T("method", http.MethodGet)), 1)
	assert.Zero(t, metrics.GetCounter(observability.MetricBackendErrors, observability.T("method", http.MethodGet)))

	candidate := domain.CandidateSlot{
		ProfileID:     sharedDomain.NewProfileID("p1"),
		ScheduledTime: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		MediaRef:      "a.mp4",
	}

	status = http.StatusConflict
	_, err = client.CreateEvent(context.Background(), candidate, false, 0)
	var conflict *RemoteConflictError
	require.ErrorAs(t, err, &conflict)

	// A 409 is a business rejection, not a transport failure.
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricBackendConflicts))
	assert.Zero(t, metrics.GetCounter(observability.MetricBackendErrors, observability.T("method", http.MethodPost)))

	status = http.StatusInternalServerError
	_, err = client.ListEvents(context.Background())
	require.Error(t, err)

	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricBackendErrors, observability.T("method", http.MethodGet)))
	assert.Equal(t, int64(2), metrics.GetCounter(observability.MetricBackendRequests, observability.T("method", http.MethodGet)))
}

func TestClient_BreakerIgnoresConflicts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"busy"}`))
	})

	candidate := domain.CandidateSlot{
		ProfileID:     sharedDomain.NewProfileID("p1"),
		ScheduledTime: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		MediaRef:      "a.mp4",
	}

	// Far more conflicts than the failure threshold: the breaker must stay
	// closed because 409s are business rejections, not outages.
	for i := 0; i < 10; i++ {
		_, err := client.CreateEvent(context.Background(), candidate, false, 0)
		var conflict *RemoteConflictError
		require.ErrorAs(t, err, &conflict)
	}
}
