package models

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/JeroenBertels/glh-timer/db"
)

// PartKind represents kind of race part.
type PartKind string

const (
	// DurationPart represents part timed by submitted durations.
	DurationPart PartKind = "duration"
	// EndTimePart represents part timed by finish timestamps.
	EndTimePart PartKind = "end_time"
	// OverallPart represents virtual part with summed results.
	OverallPart PartKind = "overall"
)

// OverallCode is the reserved code of the overall part.
const OverallCode = "overall"

// RacePart represents a single timed part of race.
type RacePart struct {
	ID     int64    `db:"id"      json:""`
	RaceID int64    `db:"race_id" json:""`
	Code   string   `db:"code"    json:""`
	Title  string   `db:"title"   json:""`
	Kind   PartKind `db:"kind"    json:""`
	Order  int64    `db:"order"   json:""`
}

// IsOverall reports whether part is the virtual overall part.
func (m RacePart) IsOverall() bool {
	return m.Kind == OverallPart
}

// RacePartStore represents store for race parts.
type RacePartStore struct {
	baseStore
}

// NewRacePartStore creates new instance of race part store.
func NewRacePartStore(conn *sql.DB, dbms db.DBMS, table string) *RacePartStore {
	return &RacePartStore{baseStore{conn: conn, dbms: dbms, table: table}}
}

const racePartColumns = `"id", "race_id", "code", "title", "kind", "order"`

func scanRacePart(scan func(...any) error) (RacePart, error) {
	var part RacePart
	err := scan(
		&part.ID, &part.RaceID, &part.Code, &part.Title, &part.Kind,
		&part.Order,
	)
	return part, err
}

// FindByRace returns all parts of race sorted by order.
func (s *RacePartStore) FindByRace(
	ctx context.Context, raceID int64,
) ([]RacePart, error) {
	rows, err := s.runner(ctx).QueryContext(
		ctx,
		fmt.Sprintf(
			`SELECT %s FROM %q WHERE "race_id" = $1`+
				` ORDER BY "order", "id"`,
			racePartColumns, s.table,
		),
		raceID,
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	var parts []RacePart
	for rows.Next() {
		part, err := scanRacePart(rows.Scan)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, rows.Err()
}

// Get returns race part by ID.
func (s *RacePartStore) Get(ctx context.Context, id int64) (RacePart, error) {
	return scanRacePart(s.runner(ctx).QueryRowContext(
		ctx,
		fmt.Sprintf(
			`SELECT %s FROM %q WHERE "id" = $1`, racePartColumns, s.table,
		),
		id,
	).Scan)
}

// GetByCode returns part of race with specified code.
func (s *RacePartStore) GetByCode(
	ctx context.Context, raceID int64, code string,
) (RacePart, error) {
	return scanRacePart(s.runner(ctx).QueryRowContext(
		ctx,
		fmt.Sprintf(
			`SELECT %s FROM %q WHERE "race_id" = $1 AND "code" = $2`,
			racePartColumns, s.table,
		),
		raceID, code,
	).Scan)
}

// Create creates race part and sets ID field.
func (s *RacePartStore) Create(ctx context.Context, part *RacePart) error {
	id, err := s.insertRow(
		ctx,
		fmt.Sprintf(
			`INSERT INTO %q ("race_id", "code", "title", "kind", "order")`+
				` VALUES ($1, $2, $3, $4, $5)`,
			s.table,
		),
		part.RaceID, part.Code, part.Title, part.Kind, part.Order,
	)
	if err != nil {
		return err
	}
	part.ID = id
	return nil
}

// Update updates race part with specified ID.
func (s *RacePartStore) Update(ctx context.Context, part RacePart) error {
	res, err := s.runner(ctx).ExecContext(
		ctx,
		fmt.Sprintf(
			`UPDATE %q SET "code" = $1, "title" = $2, "kind" = $3,`+
				` "order" = $4 WHERE "id" = $5`,
			s.table,
		),
		part.Code, part.Title, part.Kind, part.Order, part.ID,
	)
	if err != nil {
		return err
	}
	return checkUpdated(res)
}

// Delete deletes race part with specified ID.
func (s *RacePartStore) Delete(ctx context.Context, id int64) error {
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
