package core

import (
	"context"
	"time"

	"github.com/JeroenBertels/glh-timer/models"
)

// SetupAllStores prepares all stores.
func (c *Core) SetupAllStores() error {
	salt, err := c.Config.Security.PasswordSalt.GetValue()
	if err != nil {
		return err
	}
	dialect := c.Dialect()
	c.Races = models.NewRaceStore(c.DB, dialect, "timer_race")
	c.RaceParts = models.NewRacePartStore(c.DB, dialect, "timer_race_part")
	c.Participants = models.NewParticipantStore(
		c.DB, dialect, "timer_participant",
	)
	c.TimingEvents = models.NewTimingEventStore(
		c.DB, dialect, "timer_timing_event",
	)
	c.StartTimes = models.NewStartTimeStore(
		c.DB, dialect, "timer_start_time",
	)
	c.Users = models.NewUserStore(c.DB, dialect, "timer_user", salt)
	c.Sessions = models.NewSessionStore(c.DB, dialect, "timer_session")
	return nil
}

const sessionCleanPeriod = time.Hour

// startSessionCleaner starts periodic removal of expired sessions.
func (c *Core) startSessionCleaner() {
	c.StartTask(func(ctx context.Context) {
		ticker := time.NewTicker(sessionCleanPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				count, err := c.Sessions.DeleteExpired(
					ctx, time.Now().Unix(),
				)
				if err != nil {
					c.Logger().Error("Unable to clean sessions: ", err)
				} else if count > 0 {
					c.Logger().Info("Cleaned expired sessions: ", count)
				}
			}
		}
	})
}
