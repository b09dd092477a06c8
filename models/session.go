package models

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/JeroenBertels/glh-timer/db"
)

// Session represents user session.
type Session struct {
	ID         int64  `db:"id"          json:""`
	UserID     int64  `db:"user_id"     json:""`
	Secret     string `db:"secret"      json:"-"`
	CreateTime int64  `db:"create_time" json:""`
	ExpireTime int64  `db:"expire_time" json:""`
}

// GenerateSecret replaces Secret with random value.
func (m *Session) GenerateSecret() error {
	secretBytes := make([]byte, 40)
	if _, err := rand.Read(secretBytes); err != nil {
		return err
	}
	m.Secret = base64.StdEncoding.EncodeToString(secretBytes)
	return nil
}

// FormatCookie returns string representation of session for cookie.
func (m Session) FormatCookie() string {
	return fmt.Sprintf("%d_%s", m.ID, m.Secret)
}

// SessionStore represents store for sessions.
type SessionStore struct {
	baseStore
}

// NewSessionStore creates new instance of session store.
func NewSessionStore(conn *sql.DB, dbms db.DBMS, table string) *SessionStore {
	return &SessionStore{baseStore{conn: conn, dbms: dbms, table: table}}
}

const sessionColumns = `"id", "user_id", "secret", "create_time",` +
	` "expire_time"`

func scanSession(scan func(...any) error) (Session, error) {
	var session Session
	err := scan(
		&session.ID, &session.UserID, &session.Secret,
		&session.CreateTime, &session.ExpireTime,
	)
	return session, err
}

// Get returns session by ID.
func (s *SessionStore) Get(ctx context.Context, id int64) (Session, error) {
	return scanSession(s.runner(ctx).QueryRowContext(
		ctx,
		fmt.Sprintf(
			`SELECT %s FROM %q WHERE "id" = $1`, sessionColumns, s.table,
		),
		id,
	).Scan)
}

// GetByCookie returns session for cookie value in form "id_secret".
//
// If cookie is malformed or does not match stored session,
// sql.ErrNoRows will be returned.
func (s *SessionStore) GetByCookie(
	ctx context.Context, cookie string,
) (Session, error) {
	parts := strings.SplitN(cookie, "_", 2)
	if len(parts) != 2 {
		return Session{}, sql.ErrNoRows
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Session{}, sql.ErrNoRows
	}
	session, err := s.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if session.Secret != parts[1] {
		return Session{}, sql.ErrNoRows
	}
	return session, nil
}

// Create creates session and sets ID and CreateTime fields.
func (s *SessionStore) Create(ctx context.Context, session *Session) error {
	session.CreateTime = GetNow(ctx).Unix()
	id, err := s.insertRow(
		ctx,
		fmt.Sprintf(
			`INSERT INTO %q ("user_id", "secret", "create_time",`+
				` "expire_time") VALUES ($1, $2, $3, $4)`,
			s.table,
		),
		session.UserID, session.Secret, session.CreateTime,
		session.ExpireTime,
	)
	if err != nil {
		return err
	}
	session.ID = id
	return nil
}

// Delete deletes session with specified ID.
func (s *SessionStore) Delete(ctx context.Context, id int64) error {
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

// DeleteExpired deletes all sessions expired at specified time.
func (s *SessionStore) DeleteExpired(
	ctx context.Context, time int64,
) (int64, error) {
	res, err := s.runner(ctx).ExecContext(
		ctx,
		fmt.Sprintf(`DELETE FROM %q WHERE "expire_time" < $1`, s.table),
		time,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
