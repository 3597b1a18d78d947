package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	sharedDomain "github.com/c0rreagui/slotline/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sharedPersistence "github.com/c0rreagui/slotline/internal/shared/infrastructure/persistence"
)

// PostgresEventRepository implements domain.EventRepository using
// PostgreSQL, for installations sharing one queue mirror between machines.
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgreSQL event repository.
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

// eventRow represents a database row for scheduled events.
type eventRow struct {
	ID                uuid.UUID
	RemoteID          string
	ProfileID         string
	ScheduledTime     time.Time
	Status            string
	VideoPath         string
	ViralMusicEnabled bool
	MusicVolume       float64
	ErrorMessage      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

const pgEventColumns = `id, remote_id, profile_id, scheduled_time, status, video_path,
	viral_music_enabled, music_volume, error_message, created_at, updated_at`

// Save persists an event (create or update).
func (r *PostgresEventRepository) Save(ctx context.Context, event *domain.ScheduledEvent) error {
	query := `
		INSERT INTO scheduled_events (` + pgEventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			remote_id = EXCLUDED.remote_id,
			profile_id = EXCLUDED.profile_id,
			scheduled_time = EXCLUDED.scheduled_time,
			status = EXCLUDED.status,
			video_path = EXCLUDED.video_path,
			viral_music_enabled = EXCLUDED.viral_music_enabled,
			music_volume = EXCLUDED.music_volume,
			error_message = EXCLUDED.error_message,
			updated_at = EXCLUDED.updated_at
	`

	_, err := sharedPersistence.Executor(ctx, r.pool).Exec(ctx, query,
		event.ID(),
		event.RemoteID(),
		event.ProfileID().String(),
		event.ScheduledTime().UTC(),
		string(event.Status()),
		event.MediaRef(),
		event.ViralMusicEnabled(),
		event.MusicVolume(),
		event.ErrorMessage(),
		event.CreatedAt(),
		event.UpdatedAt(),
	)
	return err
}

// FindByID retrieves an event by its local ID.
func (r *PostgresEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ScheduledEvent, error) {
	query := `SELECT ` + pgEventColumns + ` FROM scheduled_events WHERE id = $1`

	var row eventRow
	err := sharedPersistence.Executor(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&row.ID, &row.RemoteID, &row.ProfileID, &row.ScheduledTime, &row.Status,
		&row.VideoPath, &row.ViralMusicEnabled, &row.MusicVolume, &row.ErrorMessage,
		&row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return rowToEvent(row), nil
}

// FindByProfile returns all events for a profile in ascending time order.
func (r *PostgresEventRepository) FindByProfile(ctx context.Context, profileID sharedDomain.ProfileID) ([]*domain.ScheduledEvent, error) {
	query := `SELECT ` + pgEventColumns + `
		FROM scheduled_events WHERE profile_id = $1 ORDER BY scheduled_time`

	rows, err := sharedPersistence.Executor(ctx, r.pool).Query(ctx, query, profileID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPgEvents(rows)
}

// FindAll returns the full local snapshot in ascending time order.
func (r *PostgresEventRepository) FindAll(ctx context.Context) ([]*domain.ScheduledEvent, error) {
	query := `SELECT ` + pgEventColumns + ` FROM scheduled_events ORDER BY scheduled_time`

	rows, err := sharedPersistence.Executor(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPgEvents(rows)
}

// ReplaceAll swaps the entire snapshot inside one transaction. A transaction
// already carried by the context is joined instead; its owner commits.
func (r *PostgresEventRepository) ReplaceAll(ctx context.Context, events []*domain.ScheduledEvent) error {
	if info, ok := sharedPersistence.TxInfoFromContext(ctx); ok {
		return r.replaceAllIn(ctx, info.Tx, events)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := r.replaceAllIn(ctx, tx, events); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PostgresEventRepository) replaceAllIn(ctx context.Context, tx sharedPersistence.DBExecutor, events []*domain.ScheduledEvent) error {
	if _, err := tx.Exec(ctx, `DELETE FROM scheduled_events`); err != nil {
		return err
	}

	insert := `
		INSERT INTO scheduled_events (` + pgEventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	for _, event := range events {
		_, err := tx.Exec(ctx, insert,
			event.ID(),
			event.RemoteID(),
			event.ProfileID().String(),
			event.ScheduledTime().UTC(),
			string(event.Status()),
			event.MediaRef(),
			event.ViralMusicEnabled(),
			event.MusicVolume(),
			event.ErrorMessage(),
			event.CreatedAt(),
			event.UpdatedAt(),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Delete removes an event. Deleting a missing event is not an error.
func (r *PostgresEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := sharedPersistence.Executor(ctx, r.pool).Exec(ctx, `DELETE FROM scheduled_events WHERE id = $1`, id)
	return err
}

func collectPgEvents(rows pgx.Rows) ([]*domain.ScheduledEvent, error) {
	events := make([]*domain.ScheduledEvent, 0)
	for rows.Next() {
		var row eventRow
		err := rows.Scan(
			&row.ID, &row.RemoteID, &row.ProfileID, &row.ScheduledTime, &row.Status,
			&row.VideoPath, &row.ViralMusicEnabled, &row.MusicVolume, &row.ErrorMessage,
			&row.CreatedAt, &row.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, rowToEvent(row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func rowToEvent(row eventRow) *domain.ScheduledEvent {
	return domain.RehydrateScheduledEvent(
		row.ID,
		row.RemoteID,
		sharedDomain.NewProfileID(row.ProfileID),
		row.ScheduledTime,
		domain.Status(row.Status),
		row.VideoPath,
		row.ViralMusicEnabled,
		row.MusicVolume,
		row.ErrorMessage,
		row.CreatedAt,
		row.UpdatedAt,
	)
}
