package core

import (
	"context"
	"database/sql"

	"github.com/JeroenBertels/glh-timer/models"
)

// CreateData creates default objects and repairs inconsistent state.
//
// Admin user is created from security config. If user already
// exists, its role and password are reset to configured values.
// Every race is also guaranteed to have an overall part.
func CreateData(ctx context.Context, c *Core) error {
	c.Logger().Info("Creating default objects")
	password, err := c.Config.Security.AdminPassword.GetValue()
	if err != nil {
		return err
	}
	login := c.Config.Security.AdminLogin
	if login == "" {
		login = "admin"
	}
	if err := c.WrapTx(ctx, func(ctx context.Context) error {
		user, err := c.Users.GetByLogin(ctx, login)
		if err == sql.ErrNoRows {
			user = models.User{Login: login, Role: models.AdminRole}
			if err := c.Users.SetPassword(&user, password); err != nil {
				return err
			}
			return c.Users.Create(ctx, &user)
		}
		if err != nil {
			return err
		}
		user.Role = models.AdminRole
		user.RaceID = 0
		if err := c.Users.SetPassword(&user, password); err != nil {
			return err
		}
		return c.Users.Update(ctx, user)
	}); err != nil {
		return err
	}
	return c.WrapTx(ctx, func(ctx context.Context) error {
		races, err := c.Races.All(ctx)
		if err != nil {
			return err
		}
		for _, race := range races {
			_, err := c.RaceParts.GetByCode(
				ctx, race.ID, models.OverallCode,
			)
			if err == nil {
				continue
			}
			if err != sql.ErrNoRows {
				return err
			}
			part := models.RacePart{
				RaceID: race.ID,
				Code:   models.OverallCode,
				Title:  "Overall",
				Kind:   models.OverallPart,
				Order:  -1,
			}
			if err := c.RaceParts.Create(ctx, &part); err != nil {
				return err
			}
		}
		return nil
	})
}
