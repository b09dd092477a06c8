// Package api provides HTTP API for timer server.
package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/JeroenBertels/glh-timer/core"
	"github.com/JeroenBertels/glh-timer/managers"
	"github.com/JeroenBertels/glh-timer/models"
)

// View represents API view.
type View struct {
	core    *core.Core
	results *managers.ResultsManager
}

// NewView returns a new instance of view.
func NewView(core *core.Core) *View {
	return &View{
		core:    core,
		results: managers.NewResultsManager(core),
	}
}

// Register registers handlers in specified group.
func (v *View) Register(g *echo.Group) {
	g.Use(v.sessionAuth)
	g.GET("/ping", v.ping)
	g.GET("/health", v.health)
	v.registerSessionHandlers(g)
	v.registerRaceHandlers(g)
	v.registerParticipantHandlers(g)
	v.registerTimingHandlers(g)
	v.registerResultsHandlers(g)
	v.registerCSVHandlers(g)
}

// ping returns pong.
func (v *View) ping(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}

// health returns current healthiness status.
func (v *View) health(c echo.Context) error {
	if err := v.core.DB.Ping(); err != nil {
		c.Logger().Error(err)
		return c.String(http.StatusInternalServerError, "unhealthy")
	}
	return c.String(http.StatusOK, "healthy")
}

const (
	authUserKey    = "auth_user"
	authSessionKey = "auth_session"
	raceKey        = "race"
	racePartKey    = "race_part"
	sessionCookie  = "session"
)

type errorField struct {
	Message string `json:"message"`
}

type errorFields map[string]errorField

type errorResponse struct {
	// Code contains HTTP status code of response.
	Code int `json:"-"`
	// Message.
	Message string `json:"message"`
	// InvalidFields.
	InvalidFields errorFields `json:"invalid_fields,omitempty"`
}

// Error returns response error message.
func (r *errorResponse) Error() string {
	return r.Message
}

// sessionAuth tries to authorize user by session cookie.
func (v *View) sessionAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(sessionCookie)
		if err != nil {
			if err == http.ErrNoCookie {
				return next(c)
			}
			c.Logger().Warn(err)
			return err
		}
		ctx := c.Request().Context()
		session, err := v.core.Sessions.GetByCookie(ctx, cookie.Value)
		if err != nil {
			if err == sql.ErrNoRows {
				return next(c)
			}
			c.Logger().Error(err)
			return err
		}
		if session.ExpireTime < models.GetNow(ctx).Unix() {
			return next(c)
		}
		user, err := v.core.Users.Get(ctx, session.UserID)
		if err != nil {
			if err == sql.ErrNoRows {
				return next(c)
			}
			c.Logger().Error(err)
			return err
		}
		c.Set(authUserKey, user)
		c.Set(authSessionKey, session)
		return next(c)
	}
}

type userAuthForm struct {
	Login    string `json:"login" form:"login"`
	Password string `json:"password" form:"password"`
}

// userAuth tries to authorize user by login and password.
func (v *View) userAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := c.Get(authUserKey).(models.User); ok {
			return next(c)
		}
		var form userAuthForm
		if err := c.Bind(&form); err != nil {
			return err
		}
		if form.Login == "" || form.Password == "" {
			return next(c)
		}
		user, err := v.core.Users.GetByLogin(
			c.Request().Context(), form.Login,
		)
		if err != nil {
			if err == sql.ErrNoRows {
				resp := errorResponse{Message: "user not found"}
				return c.JSON(http.StatusForbidden, &resp)
			}
			c.Logger().Error(err)
			return err
		}
		if !v.core.Users.CheckPassword(user, form.Password) {
			resp := errorResponse{Message: "user not found"}
			return c.JSON(http.StatusForbidden, &resp)
		}
		c.Set(authUserKey, user)
		return next(c)
	}
}

// requireAuth checks user authorization.
func (v *View) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := c.Get(authUserKey).(models.User); !ok {
			resp := errorResponse{Message: "auth required"}
			return c.JSON(http.StatusForbidden, &resp)
		}
		return next(c)
	}
}

// requireAdmin checks that user has admin role.
func (v *View) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := c.Get(authUserKey).(models.User)
		if !ok || !user.IsAdmin() {
			resp := errorResponse{Message: "admin required"}
			return c.JSON(http.StatusForbidden, &resp)
		}
		return next(c)
	}
}

// requireRaceAccess checks that user can modify extracted race.
func (v *View) requireRaceAccess(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := c.Get(authUserKey).(models.User)
		if !ok {
			resp := errorResponse{Message: "auth required"}
			return c.JSON(http.StatusForbidden, &resp)
		}
		race, ok := c.Get(raceKey).(models.Race)
		if !ok {
			resp := errorResponse{Message: "race not extracted"}
			return c.JSON(http.StatusInternalServerError, &resp)
		}
		if !user.HasRaceAccess(race.ID) {
			resp := errorResponse{Message: "race access required"}
			return c.JSON(http.StatusForbidden, &resp)
		}
		return next(c)
	}
}

// extractRace extracts race from "race" path parameter.
func (v *View) extractRace(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("race"), 10, 64)
		if err != nil {
			resp := errorResponse{Message: "invalid race ID"}
			return c.JSON(http.StatusBadRequest, &resp)
		}
		race, err := v.core.Races.Get(c.Request().Context(), id)
		if err != nil {
			if err == sql.ErrNoRows {
				resp := errorResponse{Message: "race not found"}
				return c.JSON(http.StatusNotFound, &resp)
			}
			c.Logger().Error(err)
			return err
		}
		c.Set(raceKey, race)
		return next(c)
	}
}

// extractRacePart extracts part of extracted race from "part"
// path parameter containing part ID or code.
func (v *View) extractRacePart(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		race, ok := c.Get(raceKey).(models.Race)
		if !ok {
			resp := errorResponse{Message: "race not extracted"}
			return c.JSON(http.StatusInternalServerError, &resp)
		}
		ctx := c.Request().Context()
		value := c.Param("part")
		var part models.RacePart
		var err error
		if id, parseErr := strconv.ParseInt(value, 10, 64); parseErr == nil {
			part, err = v.core.RaceParts.Get(ctx, id)
			if err == nil && part.RaceID != race.ID {
				err = sql.ErrNoRows
			}
		} else {
			part, err = v.core.RaceParts.GetByCode(ctx, race.ID, value)
		}
		if err != nil {
			if err == sql.ErrNoRows {
				resp := errorResponse{Message: "part not found"}
				return c.JSON(http.StatusNotFound, &resp)
			}
			c.Logger().Error(err)
			return err
		}
		c.Set(racePartKey, part)
		return next(c)
	}
}
