package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/JeroenBertels/glh-timer/models"
)

func (v *View) registerSessionHandlers(g *echo.Group) {
	g.POST("/v0/login", v.loginUser, v.userAuth, v.requireAuth)
	g.POST("/v0/logout", v.logoutUser, v.requireAuth)
	g.GET("/v0/status", v.status)
}

// Session represents session response.
type Session struct {
	ID         int64 `json:"id"`
	CreateTime int64 `json:"create_time"`
	ExpireTime int64 `json:"expire_time"`
}

// User represents user response.
type User struct {
	ID     int64       `json:"id"`
	Login  string      `json:"login"`
	Role   models.Role `json:"role"`
	RaceID int64       `json:"race_id,omitempty"`
}

// Status represents status response.
type Status struct {
	User    *User    `json:"user,omitempty"`
	Session *Session `json:"session,omitempty"`
}

func makeUser(user models.User) User {
	return User{
		ID:     user.ID,
		Login:  user.Login,
		Role:   user.Role,
		RaceID: int64(user.RaceID),
	}
}

func makeSession(session models.Session) Session {
	return Session{
		ID:         session.ID,
		CreateTime: session.CreateTime,
		ExpireTime: session.ExpireTime,
	}
}

const sessionDuration = 12 * time.Hour

// loginUser creates new session for authorized user.
func (v *View) loginUser(c echo.Context) error {
	user := c.Get(authUserKey).(models.User)
	ctx := c.Request().Context()
	session := models.Session{
		UserID: user.ID,
		ExpireTime: models.GetNow(ctx).
			Add(sessionDuration).Unix(),
	}
	if err := session.GenerateSecret(); err != nil {
		c.Logger().Error(err)
		return err
	}
	if err := v.core.Sessions.Create(ctx, &session); err != nil {
		c.Logger().Error(err)
		return err
	}
	cookie := http.Cookie{
		Name:    sessionCookie,
		Value:   session.FormatCookie(),
		Path:    "/",
		Expires: time.Unix(session.ExpireTime, 0),
	}
	c.SetCookie(&cookie)
	return c.JSON(http.StatusCreated, makeSession(session))
}

// logoutUser removes current session.
func (v *View) logoutUser(c echo.Context) error {
	session, ok := c.Get(authSessionKey).(models.Session)
	if !ok {
		resp := errorResponse{Message: "session required"}
		return c.JSON(http.StatusForbidden, &resp)
	}
	ctx := c.Request().Context()
	if err := v.core.Sessions.Delete(ctx, session.ID); err != nil {
		c.Logger().Error(err)
		return err
	}
	cookie := http.Cookie{Name: sessionCookie, Path: "/", MaxAge: -1}
	c.SetCookie(&cookie)
	return c.NoContent(http.StatusOK)
}

// status returns current authorization status.
func (v *View) status(c echo.Context) error {
	var status Status
	if user, ok := c.Get(authUserKey).(models.User); ok {
		resp := makeUser(user)
		status.User = &resp
	}
	if session, ok := c.Get(authSessionKey).(models.Session); ok {
		resp := makeSession(session)
		status.Session = &resp
	}
	return c.JSON(http.StatusOK, status)
}
