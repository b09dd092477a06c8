// Package core provides shared state of timer server.
package core

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/labstack/gommon/log"

	"github.com/JeroenBertels/glh-timer/config"
	"github.com/JeroenBertels/glh-timer/db"
	"github.com/JeroenBertels/glh-timer/models"
)

// Core manages all available resources.
type Core struct {
	// Config contains config.
	Config config.Config
	// Races contains race store.
	Races *models.RaceStore
	// RaceParts contains race part store.
	RaceParts *models.RacePartStore
	// Participants contains participant store.
	Participants *models.ParticipantStore
	// TimingEvents contains timing event store.
	TimingEvents *models.TimingEventStore
	// StartTimes contains start time store.
	StartTimes *models.StartTimeStore
	// Users contains user store.
	Users *models.UserStore
	// Sessions contains session store.
	Sessions *models.SessionStore
	//
	context context.Context
	cancel  context.CancelFunc
	waiter  sync.WaitGroup
	// DB stores database connection.
	DB *sql.DB
	// logger contains logger.
	logger *log.Logger
}

// NewCore creates core instance from config.
func NewCore(cfg config.Config) (*Core, error) {
	conn, err := cfg.DB.Create()
	if err != nil {
		return nil, err
	}
	level, err := cfg.LoggerLevel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	logger := log.New("")
	logger.SetHeader(`{"time":"${time_rfc3339_nano}","level":"${level}"}`)
	logger.SetLevel(level)
	return &Core{Config: cfg, DB: conn, logger: logger}, nil
}

// Logger returns logger instance.
func (c *Core) Logger() *log.Logger {
	return c.logger
}

// Dialect returns dialect of database connection.
func (c *Core) Dialect() db.DBMS {
	if c.Config.DB.Driver == config.PostgresDriver {
		return db.Postgres
	}
	return db.SQLite
}

// Start starts application tasks.
func (c *Core) Start() error {
	if c.cancel != nil {
		return fmt.Errorf("core already started")
	}
	c.Logger().Debug("Starting core")
	defer c.Logger().Debug("Core started")
	c.context, c.cancel = context.WithCancel(context.Background())
	c.startSessionCleaner()
	return nil
}

// Stop stops all tasks.
func (c *Core) Stop() {
	if c.cancel == nil {
		return
	}
	c.Logger().Debug("Stopping core")
	defer c.Logger().Debug("Core stopped")
	c.cancel()
	c.waiter.Wait()
	c.context, c.cancel = nil, nil
}

// WrapTx runs function with transaction attached to context.
func (c *Core) WrapTx(
	ctx context.Context, fn func(ctx context.Context) error,
) error {
	return db.WrapTx(ctx, c.DB, func(tx *sql.Tx) error {
		return fn(db.WithTx(ctx, tx))
	})
}

// StartTask starts task in new goroutine.
func (c *Core) StartTask(task func(ctx context.Context)) {
	c.Logger().Debug("Start core task")
	c.waiter.Add(1)
	go func() {
		defer c.Logger().Debug("Core task finished")
		defer c.waiter.Done()
		task(c.context)
	}()
}
