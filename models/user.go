package models

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/JeroenBertels/glh-timer/db"
)

// Role represents role of user.
type Role string

const (
	// AdminRole represents role with access to all races.
	AdminRole Role = "admin"
	// OrganizerRole represents role with access to single race.
	OrganizerRole Role = "organizer"
)

// User contains common information about user.
type User struct {
	ID           int64  `db:"id"            json:""`
	Login        string `db:"login"         json:""`
	PasswordHash string `db:"password_hash" json:"-"`
	PasswordSalt string `db:"password_salt" json:"-"`
	Role         Role   `db:"role"          json:""`
	RaceID       NInt64 `db:"race_id"       json:""`
	CreateTime   int64  `db:"create_time"   json:""`
}

// IsAdmin reports whether user has admin role.
func (m User) IsAdmin() bool {
	return m.Role == AdminRole
}

// HasRaceAccess reports whether user can modify specified race.
func (m User) HasRaceAccess(raceID int64) bool {
	return m.IsAdmin() || int64(m.RaceID) == raceID
}

// UserStore represents store for users.
type UserStore struct {
	baseStore
	salt string
}

// NewUserStore creates new instance of user store.
func NewUserStore(
	conn *sql.DB, dbms db.DBMS, table, salt string,
) *UserStore {
	return &UserStore{
		baseStore: baseStore{conn: conn, dbms: dbms, table: table},
		salt:      salt,
	}
}

const userColumns = `"id", "login", "password_hash", "password_salt",` +
	` "role", "race_id", "create_time"`

func scanUser(scan func(...any) error) (User, error) {
	var user User
	err := scan(
		&user.ID, &user.Login, &user.PasswordHash, &user.PasswordSalt,
		&user.Role, &user.RaceID, &user.CreateTime,
	)
	return user, err
}

// Get returns user by ID.
func (s *UserStore) Get(ctx context.Context, id int64) (User, error) {
	return scanUser(s.runner(ctx).QueryRowContext(
		ctx,
		fmt.Sprintf(
			`SELECT %s FROM %q WHERE "id" = $1`, userColumns, s.table,
		),
		id,
	).Scan)
}

// GetByLogin returns user by login.
func (s *UserStore) GetByLogin(
	ctx context.Context, login string,
) (User, error) {
	return scanUser(s.runner(ctx).QueryRowContext(
		ctx,
		fmt.Sprintf(
			`SELECT %s FROM %q WHERE "login" = $1`, userColumns, s.table,
		),
		login,
	).Scan)
}

// Create creates user and sets ID and CreateTime fields.
func (s *UserStore) Create(ctx context.Context, user *User) error {
	user.CreateTime = GetNow(ctx).Unix()
	id, err := s.insertRow(
		ctx,
		fmt.Sprintf(
			`INSERT INTO %q ("login", "password_hash", "password_salt",`+
				` "role", "race_id", "create_time")`+
				` VALUES ($1, $2, $3, $4, $5, $6)`,
			s.table,
		),
		user.Login, user.PasswordHash, user.PasswordSalt, user.Role,
		user.RaceID, user.CreateTime,
	)
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

// Update updates user with specified ID.
func (s *UserStore) Update(ctx context.Context, user User) error {
	res, err := s.runner(ctx).ExecContext(
		ctx,
		fmt.Sprintf(
			`UPDATE %q SET "login" = $1, "password_hash" = $2,`+
				` "password_salt" = $3, "role" = $4, "race_id" = $5`+
				` WHERE "id" = $6`,
			s.table,
		),
		user.Login, user.PasswordHash, user.PasswordSalt, user.Role,
		user.RaceID, user.ID,
	)
	if err != nil {
		return err
	}
	return checkUpdated(res)
}

// Delete deletes user with specified ID.
func (s *UserStore) Delete(ctx context.Context, id int64) error {
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

// SetPassword modifies PasswordHash and PasswordSalt fields.
//
// PasswordSalt will be replaced with random 16 byte string
// and PasswordHash will be calculated using password, salt
// and global salt.
func (s *UserStore) SetPassword(user *User, password string) error {
	saltBytes := make([]byte, 16)
	if _, err := rand.Read(saltBytes); err != nil {
		return err
	}
	user.PasswordSalt = encodeBase64(saltBytes)
	user.PasswordHash = hashPassword(password, user.PasswordSalt, s.salt)
	return nil
}

// CheckPassword checks that passwords are the same.
func (s *UserStore) CheckPassword(user User, password string) bool {
	passwordHash := hashPassword(password, user.PasswordSalt, s.salt)
	return passwordHash == user.PasswordHash
}

func hashPassword(password, salt, globalSalt string) string {
	return hashString(salt + hashString(password) + globalSalt)
}

func encodeBase64(bytes []byte) string {
	return base64.StdEncoding.EncodeToString(bytes)
}

func hashString(value string) string {
	bytes := sha3.Sum512([]byte(value))
	return encodeBase64(bytes[:])
}
