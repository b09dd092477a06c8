package migrations

import (
	"context"
	"database/sql"
	"strings"

	"github.com/JeroenBertels/glh-timer/db"
)

func init() {
	registerMigration(&m001{})
}

type m001 struct{}

func (m *m001) Name() string {
	return "001_initial"
}

const m001ApplySQLite = `
-- models.Race
CREATE TABLE "timer_race" (
	"id" integer PRIMARY KEY,
	"title" varchar(255) NOT NULL,
	"date" varchar(32) NOT NULL,
	"timezone" varchar(64) NOT NULL,
	"create_time" bigint NOT NULL
);
-- models.RacePart
CREATE TABLE "timer_race_part" (
	"id" integer PRIMARY KEY,
	"race_id" integer NOT NULL,
	"code" varchar(64) NOT NULL,
	"title" varchar(255) NOT NULL,
	"kind" varchar(16) NOT NULL,
	"order" integer NOT NULL,
	UNIQUE ("race_id", "code")
);
-- models.Participant
CREATE TABLE "timer_participant" (
	"id" integer PRIMARY KEY,
	"race_id" integer NOT NULL,
	"bib_number" integer NOT NULL,
	"first_name" varchar(255) NOT NULL,
	"last_name" varchar(255) NOT NULL,
	"group" varchar(64) NOT NULL,
	"club" varchar(255),
	"sex" varchar(16),
	"create_time" bigint NOT NULL,
	UNIQUE ("race_id", "bib_number")
);
-- models.TimingEvent
CREATE TABLE "timer_timing_event" (
	"id" integer PRIMARY KEY,
	"race_id" integer NOT NULL,
	"part_id" integer NOT NULL,
	"participant_id" integer NOT NULL,
	"duration" bigint,
	"end_time" bigint,
	"start_time" bigint,
	"create_time" bigint NOT NULL
);
CREATE INDEX "timer_timing_event_part_id" ON "timer_timing_event" ("part_id");
-- models.StartTime
CREATE TABLE "timer_start_time" (
	"id" integer PRIMARY KEY,
	"race_id" integer NOT NULL,
	"part_id" integer NOT NULL,
	"group" varchar(64) NOT NULL,
	"time" bigint NOT NULL,
	"create_time" bigint NOT NULL,
	UNIQUE ("part_id", "group")
);
-- models.User
CREATE TABLE "timer_user" (
	"id" integer PRIMARY KEY,
	"login" varchar(64) NOT NULL UNIQUE,
	"password_hash" varchar(255) NOT NULL,
	"password_salt" varchar(255) NOT NULL,
	"role" varchar(16) NOT NULL,
	"race_id" integer,
	"create_time" bigint NOT NULL
);
-- models.Session
CREATE TABLE "timer_session" (
	"id" integer PRIMARY KEY,
	"user_id" integer NOT NULL,
	"secret" varchar(255) NOT NULL,
	"create_time" bigint NOT NULL,
	"expire_time" bigint NOT NULL
);
CREATE INDEX "timer_session_expire_time" ON "timer_session" ("expire_time");
`

const m001ApplyPostgres = `
-- models.Race
CREATE TABLE "timer_race" (
	"id" bigserial PRIMARY KEY,
	"title" varchar(255) NOT NULL,
	"date" varchar(32) NOT NULL,
	"timezone" varchar(64) NOT NULL,
	"create_time" bigint NOT NULL
);
-- models.RacePart
CREATE TABLE "timer_race_part" (
	"id" bigserial PRIMARY KEY,
	"race_id" bigint NOT NULL,
	"code" varchar(64) NOT NULL,
	"title" varchar(255) NOT NULL,
	"kind" varchar(16) NOT NULL,
	"order" bigint NOT NULL,
	UNIQUE ("race_id", "code")
);
-- models.Participant
CREATE TABLE "timer_participant" (
	"id" bigserial PRIMARY KEY,
	"race_id" bigint NOT NULL,
	"bib_number" bigint NOT NULL,
	"first_name" varchar(255) NOT NULL,
	"last_name" varchar(255) NOT NULL,
	"group" varchar(64) NOT NULL,
	"club" varchar(255),
	"sex" varchar(16),
	"create_time" bigint NOT NULL,
	UNIQUE ("race_id", "bib_number")
);
-- models.TimingEvent
CREATE TABLE "timer_timing_event" (
	"id" bigserial PRIMARY KEY,
	"race_id" bigint NOT NULL,
	"part_id" bigint NOT NULL,
	"participant_id" bigint NOT NULL,
	"duration" bigint,
	"end_time" bigint,
	"start_time" bigint,
	"create_time" bigint NOT NULL
);
CREATE INDEX "timer_timing_event_part_id" ON "timer_timing_event" ("part_id");
-- models.StartTime
CREATE TABLE "timer_start_time" (
	"id" bigserial PRIMARY KEY,
	"race_id" bigint NOT NULL,
	"part_id" bigint NOT NULL,
	"group" varchar(64) NOT NULL,
	"time" bigint NOT NULL,
	"create_time" bigint NOT NULL,
	UNIQUE ("part_id", "group")
);
-- models.User
CREATE TABLE "timer_user" (
	"id" bigserial PRIMARY KEY,
	"login" varchar(64) NOT NULL UNIQUE,
	"password_hash" varchar(255) NOT NULL,
	"password_salt" varchar(255) NOT NULL,
	"role" varchar(16) NOT NULL,
	"race_id" bigint,
	"create_time" bigint NOT NULL
);
-- models.Session
CREATE TABLE "timer_session" (
	"id" bigserial PRIMARY KEY,
	"user_id" bigint NOT NULL,
	"secret" varchar(255) NOT NULL,
	"create_time" bigint NOT NULL,
	"expire_time" bigint NOT NULL
);
CREATE INDEX "timer_session_expire_time" ON "timer_session" ("expire_time");
`

const m001Unapply = `
DROP TABLE IF EXISTS "timer_session";
DROP TABLE IF EXISTS "timer_user";
DROP TABLE IF EXISTS "timer_start_time";
DROP TABLE IF EXISTS "timer_timing_event";
DROP TABLE IF EXISTS "timer_participant";
DROP TABLE IF EXISTS "timer_race_part";
DROP TABLE IF EXISTS "timer_race";
`

func (m *m001) Apply(
	ctx context.Context, tx *sql.Tx, dbms db.DBMS,
) error {
	switch dbms {
	case db.Postgres:
		return execScript(ctx, tx, m001ApplyPostgres)
	default:
		return execScript(ctx, tx, m001ApplySQLite)
	}
}

func (m *m001) Unapply(
	ctx context.Context, tx *sql.Tx, dbms db.DBMS,
) error {
	return execScript(ctx, tx, m001Unapply)
}

// execScript executes SQL statements separated by semicolons.
//
// Scripts are trusted constants without semicolons in literals.
func execScript(ctx context.Context, tx *sql.Tx, script string) error {
	for _, query := range strings.Split(script, ";") {
		if strings.TrimSpace(query) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}
