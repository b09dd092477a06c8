package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/JeroenBertels/glh-timer/models"
)

func (v *View) registerTimingHandlers(g *echo.Group) {
	g.GET(
		"/v0/races/:race/timing", v.observeRaceTiming,
		v.extractRace, v.requireRaceAccess,
	)
	g.GET(
		"/v0/races/:race/parts/:part/timing", v.observePartTiming,
		v.extractRace, v.requireRaceAccess, v.extractRacePart,
	)
	g.POST(
		"/v0/races/:race/parts/:part/timing", v.createTimingEvent,
		v.extractRace, v.requireRaceAccess, v.extractRacePart,
	)
	g.DELETE(
		"/v0/races/:race/timing/:event", v.deleteTimingEvent,
		v.extractRace, v.requireRaceAccess,
	)
	g.GET(
		"/v0/races/:race/parts/:part/start-times", v.observeStartTimes,
		v.extractRace, v.requireRaceAccess, v.extractRacePart,
	)
	g.POST(
		"/v0/races/:race/parts/:part/start-times", v.upsertStartTime,
		v.extractRace, v.requireRaceAccess, v.extractRacePart,
	)
}

// TimingEvent represents timing event response.
type TimingEvent struct {
	ID            int64  `json:"id"`
	PartID        int64  `json:"part_id"`
	ParticipantID int64  `json:"participant_id"`
	BibNumber     int64  `json:"bib_number,omitempty"`
	Duration      string `json:"duration,omitempty"`
	EndTime       int64  `json:"end_time,omitempty"`
	StartTime     int64  `json:"start_time,omitempty"`
	CreateTime    int64  `json:"create_time"`
}

// TimingEvents represents timing events response.
type TimingEvents struct {
	Events []TimingEvent `json:"events"`
}

// StartTimeResp represents start time response.
type StartTimeResp struct {
	ID    int64  `json:"id"`
	Group string `json:"group"`
	Time  int64  `json:"time"`
}

// StartTimes represents start times response.
type StartTimes struct {
	StartTimes []StartTimeResp `json:"start_times"`
}

func makeTimingEvent(event models.TimingEvent) TimingEvent {
	resp := TimingEvent{
		ID:            event.ID,
		PartID:        event.PartID,
		ParticipantID: event.ParticipantID,
		EndTime:       int64(event.EndTime),
		StartTime:     int64(event.StartTime),
		CreateTime:    event.CreateTime,
	}
	if event.Duration != 0 {
		resp.Duration = models.FormatDuration(int64(event.Duration))
	}
	return resp
}

func makeStartTime(startTime models.StartTime) StartTimeResp {
	return StartTimeResp{
		ID:    startTime.ID,
		Group: startTime.Group,
		Time:  startTime.Time,
	}
}

func (v *View) observeRaceTiming(c echo.Context) error {
	race, ok := c.Get(raceKey).(models.Race)
	if !ok {
		return fmt.Errorf("race not extracted")
	}
	events, err := v.core.TimingEvents.FindByRace(
		c.Request().Context(), race.ID,
	)
	if err != nil {
		c.Logger().Error(err)
		return err
	}
	return c.JSON(http.StatusOK, v.makeTimingEvents(c, events))
}

func (v *View) observePartTiming(c echo.Context) error {
	part, ok := c.Get(racePartKey).(models.RacePart)
	if !ok {
		return fmt.Errorf("part not extracted")
	}
	events, err := v.core.TimingEvents.FindByPart(
		c.Request().Context(), part.ID,
	)
	if err != nil {
		c.Logger().Error(err)
		return err
	}
	return c.JSON(http.StatusOK, v.makeTimingEvents(c, events))
}

func (v *View) makeTimingEvents(
	c echo.Context, events []models.TimingEvent,
) TimingEvents {
	ctx := c.Request().Context()
	bibs := map[int64]int64{}
	resp := TimingEvents{}
	for _, event := range events {
		item := makeTimingEvent(event)
		bib, ok := bibs[event.ParticipantID]
		if !ok {
			participant, err := v.core.Participants.Get(
				ctx, event.ParticipantID,
			)
			if err == nil {
				bib = participant.BibNumber
			}
			bibs[event.ParticipantID] = bib
		}
		item.BibNumber = bib
		resp.Events = append(resp.Events, item)
	}
	return resp
}

type timingEventForm struct {
	BibNumber *int64  `json:"bib_number" form:"bib_number"`
	Duration  *string `json:"duration" form:"duration"`
}

// createTimingEvent records a timing measurement for part.
//
// Duration parts require a duration value. Finish parts are
// stamped with the current server time and the start time of
// the participant group resolved at submit time. Unknown bib
// numbers get a placeholder participant so that the
// measurement is never lost.
func (v *View) createTimingEvent(c echo.Context) error {
	race, ok := c.Get(raceKey).(models.Race)
	if !ok {
		return fmt.Errorf("race not extracted")
	}
	part, ok := c.Get(racePartKey).(models.RacePart)
	if !ok {
		return fmt.Errorf("part not extracted")
	}
	if part.IsOverall() {
		resp := errorResponse{
			Message: "overall part cannot have timing events",
		}
		return c.JSON(http.StatusBadRequest, &resp)
	}
	var form timingEventForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return err
	}
	if form.BibNumber == nil || *form.BibNumber <= 0 {
		resp := errorResponse{
			Message: "form has invalid fields",
			InvalidFields: errorFields{
				"bib_number": {Message: "bib number should be positive"},
			},
		}
		return c.JSON(http.StatusBadRequest, &resp)
	}
	ctx := c.Request().Context()
	event := models.TimingEvent{RaceID: race.ID, PartID: part.ID}
	switch part.Kind {
	case models.DurationPart:
		if form.Duration == nil {
			resp := errorResponse{
				Message: "form has invalid fields",
				InvalidFields: errorFields{
					"duration": {Message: "duration is required"},
				},
			}
			return c.JSON(http.StatusBadRequest, &resp)
		}
		duration, err := models.ParseDuration(*form.Duration)
		if err != nil {
			resp := errorResponse{
				Message: "form has invalid fields",
				InvalidFields: errorFields{
					"duration": {Message: err.Error()},
				},
			}
			return c.JSON(http.StatusBadRequest, &resp)
		}
		seconds := int64(duration / time.Second)
		if seconds == 0 {
			resp := errorResponse{
				Message: "form has invalid fields",
				InvalidFields: errorFields{
					"duration": {Message: "duration should be positive"},
				},
			}
			return c.JSON(http.StatusBadRequest, &resp)
		}
		event.Duration = models.NInt64(seconds)
	case models.EndTimePart:
		event.EndTime = models.NInt64(models.GetNow(ctx).Unix())
	default:
		resp := errorResponse{Message: "invalid part kind"}
		return c.JSON(http.StatusBadRequest, &resp)
	}
	var participant models.Participant
	if err := v.core.WrapTx(ctx, func(ctx context.Context) error {
		var err error
		participant, err = v.core.Participants.GetByBib(
			ctx, race.ID, *form.BibNumber,
		)
		if err == sql.ErrNoRows {
			participant = models.Participant{
				RaceID:    race.ID,
				BibNumber: *form.BibNumber,
				FirstName: "Unknown",
			}
			err = v.core.Participants.Create(ctx, &participant)
		}
		if err != nil {
			return err
		}
		event.ParticipantID = participant.ID
		if part.Kind == models.EndTimePart {
			start, err := v.resolveStartTime(ctx, part.ID, participant.Group)
			if err == nil {
				event.StartTime = models.NInt64(start.Time)
			} else if err != sql.ErrNoRows {
				return err
			}
		}
		return v.core.TimingEvents.Create(ctx, &event)
	}); err != nil {
		c.Logger().Error(err)
		return err
	}
	resp := makeTimingEvent(event)
	resp.BibNumber = participant.BibNumber
	return c.JSON(http.StatusCreated, resp)
}

// resolveStartTime returns start time of group with fallback
// to the default group.
func (v *View) resolveStartTime(
	ctx context.Context, partID int64, group string,
) (models.StartTime, error) {
	start, err := v.core.StartTimes.GetByGroup(ctx, partID, group)
	if err == sql.ErrNoRows && group != models.DefaultGroup {
		return v.core.StartTimes.GetByGroup(
			ctx, partID, models.DefaultGroup,
		)
	}
	return start, err
}

func (v *View) deleteTimingEvent(c echo.Context) error {
	race, ok := c.Get(raceKey).(models.Race)
	if !ok {
		return fmt.Errorf("race not extracted")
	}
	id, err := strconv.ParseInt(c.Param("event"), 10, 64)
	if err != nil {
		resp := errorResponse{Message: "invalid event ID"}
		return c.JSON(http.StatusBadRequest, &resp)
	}
	ctx := c.Request().Context()
	event, err := v.core.TimingEvents.Get(ctx, id)
	if err == nil && event.RaceID != race.ID {
		err = sql.ErrNoRows
	}
	if err != nil {
		if err == sql.ErrNoRows {
			resp := errorResponse{Message: "event not found"}
			return c.JSON(http.StatusNotFound, &resp)
		}
		c.Logger().Error(err)
		return err
	}
	if err := v.core.TimingEvents.Delete(ctx, event.ID); err != nil {
		c.Logger().Error(err)
		return err
	}
	return c.JSON(http.StatusOK, makeTimingEvent(event))
}

func (v *View) observeStartTimes(c echo.Context) error {
	part, ok := c.Get(racePartKey).(models.RacePart)
	if !ok {
		return fmt.Errorf("part not extracted")
	}
	startTimes, err := v.core.StartTimes.FindByPart(
		c.Request().Context(), part.ID,
	)
	if err != nil {
		c.Logger().Error(err)
		return err
	}
	resp := StartTimes{}
	for _, startTime := range startTimes {
		resp.StartTimes = append(resp.StartTimes, makeStartTime(startTime))
	}
	return c.JSON(http.StatusOK, resp)
}

type startTimeForm struct {
	Group *string `json:"group" form:"group"`
	Time  *string `json:"time" form:"time"`
}

// upsertStartTime sets start time of group in finish part.
//
// Time is either "now" or wall clock time in the race timezone
// on the race date.
func (v *View) upsertStartTime(c echo.Context) error {
	race, ok := c.Get(raceKey).(models.Race)
	if !ok {
		return fmt.Errorf("race not extracted")
	}
	part, ok := c.Get(racePartKey).(models.RacePart)
	if !ok {
		return fmt.Errorf("part not extracted")
	}
	if part.Kind != models.EndTimePart {
		resp := errorResponse{
			Message: "start times are used only by finish parts",
		}
		return c.JSON(http.StatusBadRequest, &resp)
	}
	var form startTimeForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return err
	}
	group := models.DefaultGroup
	if form.Group != nil {
		group = strings.TrimSpace(*form.Group)
	}
	value := "now"
	if form.Time != nil {
		value = strings.TrimSpace(*form.Time)
	}
	ctx := c.Request().Context()
	moment, err := parseRaceTime(ctx, race, value)
	if err != nil {
		resp := errorResponse{
			Message: "form has invalid fields",
			InvalidFields: errorFields{
				"time": {Message: err.Error()},
			},
		}
		return c.JSON(http.StatusBadRequest, &resp)
	}
	startTime := models.StartTime{
		RaceID: race.ID,
		PartID: part.ID,
		Group:  group,
		Time:   moment,
	}
	if err := v.core.WrapTx(ctx, func(ctx context.Context) error {
		prev, err := v.core.StartTimes.GetByGroup(ctx, part.ID, group)
		if err == sql.ErrNoRows {
			return v.core.StartTimes.Create(ctx, &startTime)
		}
		if err != nil {
			return err
		}
		startTime.ID = prev.ID
		startTime.CreateTime = prev.CreateTime
		return v.core.StartTimes.Update(ctx, startTime)
	}); err != nil {
		c.Logger().Error(err)
		return err
	}
	return c.JSON(http.StatusOK, makeStartTime(startTime))
}

// parseRaceTime parses wall clock time on the race date in the
// race timezone. Value "now" means current server time.
func parseRaceTime(
	ctx context.Context, race models.Race, value string,
) (int64, error) {
	if strings.EqualFold(value, "now") {
		return models.GetNow(ctx).Unix(), nil
	}
	location, err := race.Location()
	if err != nil {
		return 0, err
	}
	var clock time.Time
	for _, layout := range []string{"15:04:05", "15:04"} {
		clock, err = time.Parse(layout, value)
		if err == nil {
			break
		}
	}
	if err != nil {
		return 0, fmt.Errorf("time should have HH:MM:SS format")
	}
	date, err := time.ParseInLocation("2006-01-02", race.Date, location)
	if err != nil {
		return 0, err
	}
	moment := date.Add(
		time.Duration(clock.Hour())*time.Hour +
			time.Duration(clock.Minute())*time.Minute +
			time.Duration(clock.Second())*time.Second,
	)
	return moment.Unix(), nil
}
