package models

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/JeroenBertels/glh-timer/db"
)

// Participant represents a registered participant of race.
type Participant struct {
	ID         int64   `db:"id"          json:""`
	RaceID     int64   `db:"race_id"     json:""`
	BibNumber  int64   `db:"bib_number"  json:""`
	FirstName  string  `db:"first_name"  json:""`
	LastName   string  `db:"last_name"   json:""`
	Group      string  `db:"group"       json:""`
	Club       NString `db:"club"        json:""`
	Sex        NString `db:"sex"         json:""`
	CreateTime int64   `db:"create_time" json:""`
}

// FullName returns joined first and last name.
func (m Participant) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// ParticipantStore represents store for participants.
type ParticipantStore struct {
	baseStore
}

// NewParticipantStore creates new instance of participant store.
func NewParticipantStore(
	conn *sql.DB, dbms db.DBMS, table string,
) *ParticipantStore {
	return &ParticipantStore{baseStore{conn: conn, dbms: dbms, table: table}}
}

const participantColumns = `"id", "race_id", "bib_number", "first_name",` +
	` "last_name", "group", "club", "sex", "create_time"`

func scanParticipant(scan func(...any) error) (Participant, error) {
	var participant Participant
	err := scan(
		&participant.ID, &participant.RaceID, &participant.BibNumber,
		&participant.FirstName, &participant.LastName, &participant.Group,
		&participant.Club, &participant.Sex, &participant.CreateTime,
	)
	return participant, err
}

// FindByRace returns all participants of race sorted by bib number.
func (s *ParticipantStore) FindByRace(
	ctx context.Context, raceID int64,
) ([]Participant, error) {
	rows, err := s.runner(ctx).QueryContext(
		ctx,
		fmt.Sprintf(
			`SELECT %s FROM %q WHERE "race_id" = $1`+
				` ORDER BY "bib_number", "id"`,
			participantColumns, s.table,
		),
		raceID,
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	var participants []Participant
	for rows.Next() {
		participant, err := scanParticipant(rows.Scan)
		if err != nil {
			return nil, err
		}
		participants = append(participants, participant)
	}
	return participants, rows.Err()
}

// Get returns participant by ID.
func (s *ParticipantStore) Get(
	ctx context.Context, id int64,
) (Participant, error) {
	return scanParticipant(s.runner(ctx).QueryRowContext(
		ctx,
		fmt.Sprintf(
			`SELECT %s FROM %q WHERE "id" = $1`,
			participantColumns, s.table,
		),
		id,
	).Scan)
}

// GetByBib returns participant of race with specified bib number.
func (s *ParticipantStore) GetByBib(
	ctx context.Context, raceID, bibNumber int64,
) (Participant, error) {
	return scanParticipant(s.runner(ctx).QueryRowContext(
		ctx,
		fmt.Sprintf(
			`SELECT %s FROM %q WHERE "race_id" = $1 AND "bib_number" = $2`,
			participantColumns, s.table,
		),
		raceID, bibNumber,
	).Scan)
}

// Create creates participant and sets ID and CreateTime fields.
func (s *ParticipantStore) Create(
	ctx context.Context, participant *Participant,
) error {
	participant.CreateTime = GetNow(ctx).Unix()
	id, err := s.insertRow(
		ctx,
		fmt.Sprintf(
			`INSERT INTO %q ("race_id", "bib_number", "first_name",`+
				` "last_name", "group", "club", "sex", "create_time")`+
				` VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			s.table,
		),
		participant.RaceID, participant.BibNumber, participant.FirstName,
		participant.LastName, participant.Group, participant.Club,
		participant.Sex, participant.CreateTime,
	)
	if err != nil {
		return err
	}
	participant.ID = id
	return nil
}

// Update updates participant with specified ID.
func (s *ParticipantStore) Update(
	ctx context.Context, participant Participant,
) error {
	res, err := s.runner(ctx).ExecContext(
		ctx,
		fmt.Sprintf(
			`UPDATE %q SET "bib_number" = $1, "first_name" = $2,`+
				` "last_name" = $3, "group" = $4, "club" = $5, "sex" = $6`+
				` WHERE "id" = $7`,
			s.table,
		),
		participant.BibNumber, participant.FirstName, participant.LastName,
		participant.Group, participant.Club, participant.Sex,
		participant.ID,
	)
	if err != nil {
		return err
	}
	return checkUpdated(res)
}

// Delete deletes participant with specified ID.
func (s *ParticipantStore) Delete(ctx context.Context, id int64) error {
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
