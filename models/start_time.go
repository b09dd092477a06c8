package models

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/JeroenBertels/glh-timer/db"
)

// DefaultGroup is the group used when participant group
// has no start time of its own.
const DefaultGroup = ""

// StartTime represents start time of group in part of race.
//
// Empty group represents the default start time used as
// fallback for groups without own start time.
type StartTime struct {
	ID         int64  `db:"id"          json:""`
	RaceID     int64  `db:"race_id"     json:""`
	PartID     int64  `db:"part_id"     json:""`
	Group      string `db:"group"       json:""`
	Time       int64  `db:"time"        json:""`
	CreateTime int64  `db:"create_time" json:""`
}

// StartTimeStore represents store for start times.
type StartTimeStore struct {
	baseStore
}

// NewStartTimeStore creates new instance of start time store.
func NewStartTimeStore(
	conn *sql.DB, dbms db.DBMS, table string,
) *StartTimeStore {
	return &StartTimeStore{baseStore{conn: conn, dbms: dbms, table: table}}
}

const startTimeColumns = `"id", "race_id", "part_id", "group", "time",` +
	` "create_time"`

func scanStartTime(scan func(...any) error) (StartTime, error) {
	var startTime StartTime
	err := scan(
		&startTime.ID, &startTime.RaceID, &startTime.PartID,
		&startTime.Group, &startTime.Time, &startTime.CreateTime,
	)
	return startTime, err
}

// FindByPart returns all start times of part sorted by group.
func (s *StartTimeStore) FindByPart(
	ctx context.Context, partID int64,
) ([]StartTime, error) {
	rows, err := s.runner(ctx).QueryContext(
		ctx,
		fmt.Sprintf(
			`SELECT %s FROM %q WHERE "part_id" = $1 ORDER BY "group"`,
			startTimeColumns, s.table,
		),
		partID,
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	var startTimes []StartTime
	for rows.Next() {
		startTime, err := scanStartTime(rows.Scan)
		if err != nil {
			return nil, err
		}
		startTimes = append(startTimes, startTime)
	}
	return startTimes, rows.Err()
}

// GetByGroup returns start time of group in part.
//
// If group has no start time, sql.ErrNoRows will be returned.
// Fallback to the default group is up to the caller.
func (s *StartTimeStore) GetByGroup(
	ctx context.Context, partID int64, group string,
) (StartTime, error) {
	return scanStartTime(s.runner(ctx).QueryRowContext(
		ctx,
		fmt.Sprintf(
			`SELECT %s FROM %q WHERE "part_id" = $1 AND "group" = $2`,
			startTimeColumns, s.table,
		),
		partID, group,
	).Scan)
}

// Create creates start time and sets ID and CreateTime fields.
func (s *StartTimeStore) Create(
	ctx context.Context, startTime *StartTime,
) error {
	startTime.CreateTime = GetNow(ctx).Unix()
	id, err := s.insertRow(
		ctx,
		fmt.Sprintf(
			`INSERT INTO %q ("race_id", "part_id", "group", "time",`+
				` "create_time") VALUES ($1, $2, $3, $4, $5)`,
			s.table,
		),
		startTime.RaceID, startTime.PartID, startTime.Group,
		startTime.Time, startTime.CreateTime,
	)
	if err != nil {
		return err
	}
	startTime.ID = id
	return nil
}

// Update updates start time with specified ID.
func (s *StartTimeStore) Update(
	ctx context.Context, startTime StartTime,
) error {
	res, err := s.runner(ctx).ExecContext(
		ctx,
		fmt.Sprintf(
			`UPDATE %q SET "time" = $1 WHERE "id" = $2`, s.table,
		),
		startTime.Time, startTime.ID,
	)
	if err != nil {
		return err
	}
	return checkUpdated(res)
}

// Delete deletes start time with specified ID.
func (s *StartTimeStore) Delete(ctx context.Context, id int64) error {
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
