package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	sharedDomain "github.com/c0rreagui/slotline/internal/shared/domain"
	"github.com/google/uuid"
)

// SQLiteEventRepository implements domain.EventRepository using SQLite. It
// is the default local store; the file lives next to the user's config.
type SQLiteEventRepository struct {
	dbConn *sql.DB
}

// NewSQLiteEventRepository creates a new SQLite event repository.
func NewSQLiteEventRepository(dbConn *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{dbConn: dbConn}
}

const sqliteEventColumns = `id, remote_id, profile_id, scheduled_time, status, video_path,
	viral_music_enabled, music_volume, error_message, created_at, updated_at`

// Save persists an event (create or update).
func (r *SQLiteEventRepository) Save(ctx context.Context, event *domain.ScheduledEvent) error {
	query := `
		INSERT INTO scheduled_events (` + sqliteEventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			remote_id = excluded.remote_id,
			profile_id = excluded.profile_id,
			scheduled_time = excluded.scheduled_time,
			status = excluded.status,
			video_path = excluded.video_path,
			viral_music_enabled = excluded.viral_music_enabled,
			music_volume = excluded.music_volume,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at
	`

	_, err := r.dbConn.ExecContext(ctx, query,
		event.ID().String(),
		event.RemoteID(),
		event.ProfileID().String(),
		event.ScheduledTime().UTC().Format(time.RFC3339),
		string(event.Status()),
		event.MediaRef(),
		boolToInt64(event.ViralMusicEnabled()),
		event.MusicVolume(),
		event.ErrorMessage(),
		event.CreatedAt().UTC().Format(time.RFC3339),
		event.UpdatedAt().UTC().Format(time.RFC3339),
	)
	return err
}

// FindByID retrieves an event by its local ID.
func (r *SQLiteEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ScheduledEvent, error) {
	query := `SELECT ` + sqliteEventColumns + ` FROM scheduled_events WHERE id = ?`

	event, err := scanSQLiteEvent(r.dbConn.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return event, nil
}

// FindByProfile returns all events for a profile in ascending time order.
func (r *SQLiteEventRepository) FindByProfile(ctx context.Context, profileID sharedDomain.ProfileID) ([]*domain.ScheduledEvent, error) {
	query := `SELECT ` + sqliteEventColumns + `
		FROM scheduled_events WHERE profile_id = ? ORDER BY scheduled_time`

	rows, err := r.dbConn.QueryContext(ctx, query, profileID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSQLiteEvents(rows)
}

// FindAll returns the full local snapshot in ascending time order.
func (r *SQLiteEventRepository) FindAll(ctx context.Context) ([]*domain.ScheduledEvent, error) {
	query := `SELECT ` + sqliteEventColumns + ` FROM scheduled_events ORDER BY scheduled_time`

	rows, err := r.dbConn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSQLiteEvents(rows)
}

// ReplaceAll swaps the entire snapshot inside one transaction, so readers
// never observe a half-applied push update.
func (r *SQLiteEventRepository) ReplaceAll(ctx context.Context, events []*domain.ScheduledEvent) error {
	tx, err := r.dbConn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scheduled_events`); err != nil {
		return err
	}

	insert := `
		INSERT INTO scheduled_events (` + sqliteEventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, event := range events {
		_, err := tx.ExecContext(ctx, insert,
			event.ID().String(),
			event.RemoteID(),
			event.ProfileID().String(),
			event.ScheduledTime().UTC().Format(time.RFC3339),
			string(event.Status()),
			event.MediaRef(),
			boolToInt64(event.ViralMusicEnabled()),
			event.MusicVolume(),
			event.ErrorMessage(),
			event.CreatedAt().UTC().Format(time.RFC3339),
			event.UpdatedAt().UTC().Format(time.RFC3339),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Delete removes an event. Deleting a missing event is not an error.
func (r *SQLiteEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.dbConn.ExecContext(ctx, `DELETE FROM scheduled_events WHERE id = ?`, id.String())
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteEvent(row rowScanner) (*domain.ScheduledEvent, error) {
	var (
		id            string
		remoteID      string
		profileID     string
		scheduledTime string
		status        string
		videoPath     string
		viralMusic    int64
		musicVolume   float64
		errorMessage  string
		createdAt     string
		updatedAt     string
	)

	if err := row.Scan(&id, &remoteID, &profileID, &scheduledTime, &status, &videoPath,
		&viralMusic, &musicVolume, &errorMessage, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	localID, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	at, err := time.Parse(time.RFC3339, scheduledTime)
	if err != nil {
		return nil, err
	}
	created, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, err
	}
	updated, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateScheduledEvent(
		localID,
		remoteID,
		sharedDomain.NewProfileID(profileID),
		at,
		domain.Status(status),
		videoPath,
		viralMusic != 0,
		musicVolume,
		errorMessage,
		created,
		updated,
	), nil
}

func collectSQLiteEvents(rows *sql.Rows) ([]*domain.ScheduledEvent, error) {
	events := make([]*domain.ScheduledEvent, 0)
	for rows.Next() {
		event, err := scanSQLiteEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
