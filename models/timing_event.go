package models

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/JeroenBertels/glh-timer/db"
)

// TimingEvent represents a single timing measurement.
//
// Duration is set for parts timed by submitted durations.
// EndTime and StartTime are set for parts timed by finish
// timestamps. StartTime may be empty when no start time was
// resolvable at submit time.
type TimingEvent struct {
	ID            int64  `db:"id"             json:""`
	RaceID        int64  `db:"race_id"        json:""`
	PartID        int64  `db:"part_id"        json:""`
	ParticipantID int64  `db:"participant_id" json:""`
	Duration      NInt64 `db:"duration"       json:""`
	EndTime       NInt64 `db:"end_time"       json:""`
	StartTime     NInt64 `db:"start_time"     json:""`
	CreateTime    int64  `db:"create_time"    json:""`
}

// TimingEventStore represents store for timing events.
type TimingEventStore struct {
	baseStore
}

// NewTimingEventStore creates new instance of timing event store.
func NewTimingEventStore(
	conn *sql.DB, dbms db.DBMS, table string,
) *TimingEventStore {
	return &TimingEventStore{baseStore{conn: conn, dbms: dbms, table: table}}
}

const timingEventColumns = `"id", "race_id", "part_id", "participant_id",` +
	` "duration", "end_time", "start_time", "create_time"`

func scanTimingEvent(scan func(...any) error) (TimingEvent, error) {
	var event TimingEvent
	err := scan(
		&event.ID, &event.RaceID, &event.PartID, &event.ParticipantID,
		&event.Duration, &event.EndTime, &event.StartTime,
		&event.CreateTime,
	)
	return event, err
}

func (s *TimingEventStore) findEvents(
	ctx context.Context, where string, args ...any,
) ([]TimingEvent, error) {
	rows, err := s.runner(ctx).QueryContext(
		ctx,
		fmt.Sprintf(
			`SELECT %s FROM %q WHERE %s`,
			timingEventColumns, s.table, where,
		),
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	var events []TimingEvent
	for rows.Next() {
		event, err := scanTimingEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// FindByPart returns all events of part sorted by most recent first.
func (s *TimingEventStore) FindByPart(
	ctx context.Context, partID int64,
) ([]TimingEvent, error) {
	return s.findEvents(ctx, `"part_id" = $1 ORDER BY "id" DESC`, partID)
}

// FindByRace returns all events of race sorted by most recent first.
func (s *TimingEventStore) FindByRace(
	ctx context.Context, raceID int64,
) ([]TimingEvent, error) {
	return s.findEvents(ctx, `"race_id" = $1 ORDER BY "id" DESC`, raceID)
}

// Get returns timing event by ID.
func (s *TimingEventStore) Get(
	ctx context.Context, id int64,
) (TimingEvent, error) {
	return scanTimingEvent(s.runner(ctx).QueryRowContext(
		ctx,
		fmt.Sprintf(
			`SELECT %s FROM %q WHERE "id" = $1`,
			timingEventColumns, s.table,
		),
		id,
	).Scan)
}

// Create creates timing event and sets ID and CreateTime fields.
func (s *TimingEventStore) Create(
	ctx context.Context, event *TimingEvent,
) error {
	event.CreateTime = GetNow(ctx).Unix()
	id, err := s.insertRow(
		ctx,
		fmt.Sprintf(
			`INSERT INTO %q ("race_id", "part_id", "participant_id",`+
				` "duration", "end_time", "start_time", "create_time")`+
				` VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			s.table,
		),
		event.RaceID, event.PartID, event.ParticipantID, event.Duration,
		event.EndTime, event.StartTime, event.CreateTime,
	)
	if err != nil {
		return err
	}
	event.ID = id
	return nil
}

// Delete deletes timing event with specified ID.
func (s *TimingEventStore) Delete(ctx context.Context, id int64) error {
	res, err := s.runner(ctx).ExecContext(
		ctx,
		fmt.Sprintf(`DELETE FROM %q WHERE "id" = $1`, s.table),
		id,
	)
	if err != nil {
		return err
	}
	return checkUpdated(res)
}
