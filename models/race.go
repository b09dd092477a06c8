package models

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/JeroenBertels/glh-timer/db"
)

// Race represents a timed event consisting of several parts.
type Race struct {
	ID         int64  `db:"id"          json:""`
	Title      string `db:"title"       json:""`
	Date       string `db:"date"        json:""`
	Timezone   string `db:"timezone"    json:""`
	CreateTime int64  `db:"create_time" json:""`
}

// Location returns time location of race.
func (m Race) Location() (*time.Location, error) {
	if m.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(m.Timezone)
}

// RaceStore represents store for races.
type RaceStore struct {
	baseStore
}

// NewRaceStore creates new instance of race store.
func NewRaceStore(conn *sql.DB, dbms db.DBMS, table string) *RaceStore {
	return &RaceStore{baseStore{conn: conn, dbms: dbms, table: table}}
}

// All returns all races sorted by date in descending order.
func (s *RaceStore) All(ctx context.Context) ([]Race, error) {
	rows, err := s.runner(ctx).QueryContext(
		ctx,
		fmt.Sprintf(
			`SELECT "id", "title", "date", "timezone", "create_time"`+
				` FROM %q ORDER BY "date" DESC, "id" DESC`,
			s.table,
		),
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	var races []Race
	for rows.Next() {
		var race Race
		if err := rows.Scan(
			&race.ID, &race.Title, &race.Date, &race.Timezone,
			&race.CreateTime,
		); err != nil {
			return nil, err
		}
		races = append(races, race)
	}
	return races, rows.Err()
}

// Get returns race by ID.
//
// If race does not exist, sql.ErrNoRows will be returned.
func (s *RaceStore) Get(ctx context.Context, id int64) (Race, error) {
	var race Race
	err := s.runner(ctx).QueryRowContext(
		ctx,
		fmt.Sprintf(
			`SELECT "id", "title", "date", "timezone", "create_time"`+
				` FROM %q WHERE "id" = $1`,
			s.table,
		),
		id,
	).Scan(
		&race.ID, &race.Title, &race.Date, &race.Timezone,
		&race.CreateTime,
	)
	return race, err
}

// Create creates race and sets ID and CreateTime fields.
func (s *RaceStore) Create(ctx context.Context, race *Race) error {
	race.CreateTime = GetNow(ctx).Unix()
	id, err := s.insertRow(
		ctx,
		fmt.Sprintf(
			`INSERT INTO %q ("title", "date", "timezone", "create_time")`+
				` VALUES ($1, $2, $3, $4)`,
			s.table,
		),
		race.Title, race.Date, race.Timezone, race.CreateTime,
	)
	if err != nil {
		return err
	}
	race.ID = id
	return nil
}

// Update updates race with specified ID.
func (s *RaceStore) Update(ctx context.Context, race Race) error {
	res, err := s.runner(ctx).ExecContext(
		ctx,
		fmt.Sprintf(
			`UPDATE %q SET "title" = $1, "date" = $2, "timezone" = $3`+
				` WHERE "id" = $4`,
			s.table,
		),
		race.Title, race.Date, race.Timezone, race.ID,
	)
	if err != nil {
		return err
	}
	return checkUpdated(res)
}

// Delete deletes race with specified ID.
func (s *RaceStore) Delete(ctx context.Context, id int64) error {
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

func checkUpdated(res sql.Result) error {
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return sql.ErrNoRows
	}
	return nil
}
