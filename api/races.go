package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/JeroenBertels/glh-timer/models"
)

func (v *View) registerRaceHandlers(g *echo.Group) {
	g.GET("/v0/races", v.observeRaces)
	g.POST("/v0/races", v.createRace, v.requireAuth, v.requireAdmin)
	g.GET("/v0/races/:race", v.observeRace, v.extractRace)
	g.PATCH(
		"/v0/races/:race", v.updateRace,
		v.extractRace, v.requireRaceAccess,
	)
	g.DELETE(
		"/v0/races/:race", v.deleteRace,
		v.requireAuth, v.requireAdmin, v.extractRace,
	)
	g.GET("/v0/races/:race/parts", v.observeRaceParts, v.extractRace)
	g.POST(
		"/v0/races/:race/parts", v.createRacePart,
		v.extractRace, v.requireRaceAccess,
	)
	g.PATCH(
		"/v0/races/:race/parts/:part", v.updateRacePart,
		v.extractRace, v.requireRaceAccess, v.extractRacePart,
	)
	g.DELETE(
		"/v0/races/:race/parts/:part", v.deleteRacePart,
		v.extractRace, v.requireRaceAccess, v.extractRacePart,
	)
}

// Race represents race response.
type Race struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Timezone string `json:"timezone,omitempty"`
}

// Races represents races response.
type Races struct {
	Races []Race `json:"races"`
}

// RacePart represents race part response.
type RacePart struct {
	ID    int64           `json:"id"`
	Code  string          `json:"code"`
	Title string          `json:"title"`
	Kind  models.PartKind `json:"kind"`
	Order int64           `json:"order"`
}

// RaceParts represents race parts response.
type RaceParts struct {
	Parts []RacePart `json:"parts"`
}

func makeRace(race models.Race) Race {
	return Race{
		ID:       race.ID,
		Title:    race.Title,
		Date:     race.Date,
		Timezone: race.Timezone,
	}
}

func makeRacePart(part models.RacePart) RacePart {
	return RacePart{
		ID:    part.ID,
		Code:  part.Code,
		Title: part.Title,
		Kind:  part.Kind,
		Order: part.Order,
	}
}

func (v *View) observeRaces(c echo.Context) error {
	races, err := v.core.Races.All(c.Request().Context())
	if err != nil {
		c.Logger().Error(err)
		return err
	}
	resp := Races{}
	for _, race := range races {
		resp.Races = append(resp.Races, makeRace(race))
	}
	return c.JSON(http.StatusOK, resp)
}

func (v *View) observeRace(c echo.Context) error {
	race, ok := c.Get(raceKey).(models.Race)
	if !ok {
		c.Logger().Error("race not extracted")
		return fmt.Errorf("race not extracted")
	}
	return c.JSON(http.StatusOK, makeRace(race))
}

// RaceForm represents race form.
type RaceForm struct {
	Title    *string `json:"title" form:"title"`
	Date     *string `json:"date" form:"date"`
	Timezone *string `json:"timezone" form:"timezone"`
}

func (f RaceForm) Update(race *models.Race) *errorResponse {
	errors := errorFields{}
	if f.Title != nil {
		if len(*f.Title) == 0 {
			errors["title"] = errorField{Message: "title is empty"}
		}
		race.Title = *f.Title
	}
	if f.Date != nil {
		if _, err := time.Parse("2006-01-02", *f.Date); err != nil {
			errors["date"] = errorField{
				Message: "date should have YYYY-MM-DD format",
			}
		}
		race.Date = *f.Date
	}
	if f.Timezone != nil {
		if _, err := time.LoadLocation(*f.Timezone); err != nil {
			errors["timezone"] = errorField{Message: "invalid timezone"}
		}
		race.Timezone = *f.Timezone
	}
	if len(errors) > 0 {
		return &errorResponse{
			Message:       "form has invalid fields",
			InvalidFields: errors,
		}
	}
	return nil
}

func (v *View) createRace(c echo.Context) error {
	var form RaceForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return err
	}
	if form.Title == nil {
		empty := ""
		form.Title = &empty
	}
	if form.Date == nil {
		empty := ""
		form.Date = &empty
	}
	var race models.Race
	if resp := form.Update(&race); resp != nil {
		return c.JSON(http.StatusBadRequest, resp)
	}
	ctx := c.Request().Context()
	if err := v.core.WrapTx(ctx, func(ctx context.Context) error {
		if err := v.core.Races.Create(ctx, &race); err != nil {
			return err
		}
		part := models.RacePart{
			RaceID: race.ID,
			Code:   models.OverallCode,
			Title:  "Overall",
			Kind:   models.OverallPart,
			Order:  -1,
		}
		return v.core.RaceParts.Create(ctx, &part)
	}); err != nil {
		c.Logger().Error(err)
		return err
	}
	return c.JSON(http.StatusCreated, makeRace(race))
}

func (v *View) updateRace(c echo.Context) error {
	race, ok := c.Get(raceKey).(models.Race)
	if !ok {
		return fmt.Errorf("race not extracted")
	}
	var form RaceForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return err
	}
	if resp := form.Update(&race); resp != nil {
		return c.JSON(http.StatusBadRequest, resp)
	}
	if err := v.core.Races.Update(c.Request().Context(), race); err != nil {
		c.Logger().Error(err)
		return err
	}
	return c.JSON(http.StatusOK, makeRace(race))
}

func (v *View) deleteRace(c echo.Context) error {
	race, ok := c.Get(raceKey).(models.Race)
	if !ok {
		return fmt.Errorf("race not extracted")
	}
	ctx := c.Request().Context()
	if err := v.core.WrapTx(ctx, func(ctx context.Context) error {
		events, err := v.core.TimingEvents.FindByRace(ctx, race.ID)
		if err != nil {
			return err
		}
		for _, event := range events {
			if err := v.core.TimingEvents.Delete(ctx, event.ID); err != nil {
				return err
			}
		}
		parts, err := v.core.RaceParts.FindByRace(ctx, race.ID)
		if err != nil {
			return err
		}
		for _, part := range parts {
			starts, err := v.core.StartTimes.FindByPart(ctx, part.ID)
			if err != nil {
				return err
			}
			for _, start := range starts {
				if err := v.core.StartTimes.Delete(ctx, start.ID); err != nil {
					return err
				}
			}
			if err := v.core.RaceParts.Delete(ctx, part.ID); err != nil {
				return err
			}
		}
		participants, err := v.core.Participants.FindByRace(ctx, race.ID)
		if err != nil {
			return err
		}
		for _, participant := range participants {
			err := v.core.Participants.Delete(ctx, participant.ID)
			if err != nil {
				return err
			}
		}
		return v.core.Races.Delete(ctx, race.ID)
	}); err != nil {
		c.Logger().Error(err)
		return err
	}
	return c.JSON(http.StatusOK, makeRace(race))
}

func (v *View) observeRaceParts(c echo.Context) error {
	race, ok := c.Get(raceKey).(models.Race)
	if !ok {
		return fmt.Errorf("race not extracted")
	}
	parts, err := v.core.RaceParts.FindByRace(c.Request().Context(), race.ID)
	if err != nil {
		c.Logger().Error(err)
		return err
	}
	resp := RaceParts{}
	for _, part := range parts {
		resp.Parts = append(resp.Parts, makeRacePart(part))
	}
	return c.JSON(http.StatusOK, resp)
}

// RacePartForm represents race part form.
type RacePartForm struct {
	Code  *string `json:"code" form:"code"`
	Title *string `json:"title" form:"title"`
	Kind  *string `json:"kind" form:"kind"`
	Order *int64  `json:"order" form:"order"`
}

func (f RacePartForm) Update(part *models.RacePart) *errorResponse {
	errors := errorFields{}
	if f.Code != nil {
		if len(*f.Code) == 0 {
			errors["code"] = errorField{Message: "code is empty"}
		} else if *f.Code == models.OverallCode {
			errors["code"] = errorField{Message: "code is reserved"}
		}
		part.Code = *f.Code
	}
	if f.Title != nil {
		if len(*f.Title) == 0 {
			errors["title"] = errorField{Message: "title is empty"}
		}
		part.Title = *f.Title
	}
	if f.Kind != nil {
		switch kind := models.PartKind(*f.Kind); kind {
		case models.DurationPart, models.EndTimePart:
			part.Kind = kind
		default:
			errors["kind"] = errorField{Message: "invalid kind"}
		}
	}
	if f.Order != nil {
		part.Order = *f.Order
	}
	if len(errors) > 0 {
		return &errorResponse{
			Message:       "form has invalid fields",
			InvalidFields: errors,
		}
	}
	return nil
}

func (v *View) createRacePart(c echo.Context) error {
	race, ok := c.Get(raceKey).(models.Race)
	if !ok {
		return fmt.Errorf("race not extracted")
	}
	var form RacePartForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return err
	}
	if form.Code == nil {
		empty := ""
		form.Code = &empty
	}
	if form.Title == nil {
		empty := ""
		form.Title = &empty
	}
	if form.Kind == nil {
		kind := string(models.DurationPart)
		form.Kind = &kind
	}
	part := models.RacePart{RaceID: race.ID}
	if resp := form.Update(&part); resp != nil {
		return c.JSON(http.StatusBadRequest, resp)
	}
	ctx := c.Request().Context()
	if _, err := v.core.RaceParts.GetByCode(
		ctx, race.ID, part.Code,
	); err == nil {
		resp := errorResponse{Message: "part code already exists"}
		return c.JSON(http.StatusBadRequest, &resp)
	} else if err != sql.ErrNoRows {
		c.Logger().Error(err)
		return err
	}
	if err := v.core.RaceParts.Create(ctx, &part); err != nil {
		c.Logger().Error(err)
		return err
	}
	return c.JSON(http.StatusCreated, makeRacePart(part))
}

func (v *View) updateRacePart(c echo.Context) error {
	part, ok := c.Get(racePartKey).(models.RacePart)
	if !ok {
		return fmt.Errorf("part not extracted")
	}
	if part.IsOverall() {
		resp := errorResponse{Message: "overall part cannot be updated"}
		return c.JSON(http.StatusBadRequest, &resp)
	}
	var form RacePartForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return err
	}
	if resp := form.Update(&part); resp != nil {
		return c.JSON(http.StatusBadRequest, resp)
	}
	ctx := c.Request().Context()
	if other, err := v.core.RaceParts.GetByCode(
		ctx, part.RaceID, part.Code,
	); err == nil && other.ID != part.ID {
		resp := errorResponse{Message: "part code already exists"}
		return c.JSON(http.StatusBadRequest, &resp)
	} else if err != nil && err != sql.ErrNoRows {
		c.Logger().Error(err)
		return err
	}
	if err := v.core.RaceParts.Update(ctx, part); err != nil {
		c.Logger().Error(err)
		return err
	}
	return c.JSON(http.StatusOK, makeRacePart(part))
}

func (v *View) deleteRacePart(c echo.Context) error {
	part, ok := c.Get(racePartKey).(models.RacePart)
	if !ok {
		return fmt.Errorf("part not extracted")
	}
	if part.IsOverall() {
		resp := errorResponse{Message: "overall part cannot be deleted"}
		return c.JSON(http.StatusBadRequest, &resp)
	}
	ctx := c.Request().Context()
	if err := v.core.WrapTx(ctx, func(ctx context.Context) error {
		events, err := v.core.TimingEvents.FindByPart(ctx, part.ID)
		if err != nil {
			return err
		}
		for _, event := range events {
			if err := v.core.TimingEvents.Delete(ctx, event.ID); err != nil {
				return err
			}
		}
		starts, err := v.core.StartTimes.FindByPart(ctx, part.ID)
		if err != nil {
			return err
		}
		for _, start := range starts {
			if err := v.core.StartTimes.Delete(ctx, start.ID); err != nil {
				return err
			}
		}
		return v.core.RaceParts.Delete(ctx, part.ID)
	}); err != nil {
		c.Logger().Error(err)
		return err
	}
	return c.JSON(http.StatusOK, makeRacePart(part))
}
