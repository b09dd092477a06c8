package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/JeroenBertels/glh-timer/models"
)

func (v *View) registerCSVHandlers(g *echo.Group) {
	g.GET(
		"/v0/csv/races.csv", v.exportRacesCSV,
		v.requireAuth, v.requireAdmin,
	)
	g.GET(
		"/v0/races/:race/csv/parts.csv", v.exportRacePartsCSV,
		v.extractRace, v.requireRaceAccess,
	)
	g.GET(
		"/v0/races/:race/csv/participants.csv", v.exportParticipantsCSV,
		v.extractRace, v.requireRaceAccess,
	)
	g.GET(
		"/v0/races/:race/csv/timing-events.csv", v.exportTimingEventsCSV,
		v.extractRace, v.requireRaceAccess,
	)
	g.GET(
		"/v0/races/:race/parts/:part/results.csv", v.exportResultsCSV,
		v.extractRace, v.requireRaceAccess, v.extractRacePart,
	)
}

func writeCSV(c echo.Context, name string, rows [][]string) error {
	c.Response().Header().Set(
		echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", name),
	)
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().WriteHeader(http.StatusOK)
	writer := csv.NewWriter(c.Response())
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func (v *View) exportRacesCSV(c echo.Context) error {
	races, err := v.core.Races.All(c.Request().Context())
	if err != nil {
		c.Logger().Error(err)
		return err
	}
	rows := [][]string{{"id", "title", "date", "timezone", "create_time"}}
	for _, race := range races {
		rows = append(rows, []string{
			strconv.FormatInt(race.ID, 10),
			race.Title,
			race.Date,
			race.Timezone,
			strconv.FormatInt(race.CreateTime, 10),
		})
	}
	return writeCSV(c, "races.csv", rows)
}

func (v *View) exportRacePartsCSV(c echo.Context) error {
	race, ok := c.Get(raceKey).(models.Race)
	if !ok {
		return fmt.Errorf("race not extracted")
	}
	parts, err := v.core.RaceParts.FindByRace(c.Request().Context(), race.ID)
	if err != nil {
		c.Logger().Error(err)
		return err
	}
	rows := [][]string{{"id", "code", "title", "kind", "order"}}
	for _, part := range parts {
		rows = append(rows, []string{
			strconv.FormatInt(part.ID, 10),
			part.Code,
			part.Title,
			string(part.Kind),
			strconv.FormatInt(part.Order, 10),
		})
	}
	return writeCSV(c, "parts.csv", rows)
}

func (v *View) exportParticipantsCSV(c echo.Context) error {
	race, ok := c.Get(raceKey).(models.Race)
	if !ok {
		return fmt.Errorf("race not extracted")
	}
	participants, err := v.core.Participants.FindByRace(
		c.Request().Context(), race.ID,
	)
	if err != nil {
		c.Logger().Error(err)
		return err
	}
	rows := [][]string{{
		"id", "bib_number", "first_name", "last_name", "group",
		"club", "sex",
	}}
	for _, participant := range participants {
		rows = append(rows, []string{
			strconv.FormatInt(participant.ID, 10),
			strconv.FormatInt(participant.BibNumber, 10),
			participant.FirstName,
			participant.LastName,
			participant.Group,
			string(participant.Club),
			string(participant.Sex),
		})
	}
	return writeCSV(c, "participants.csv", rows)
}

func (v *View) exportTimingEventsCSV(c echo.Context) error {
	race, ok := c.Get(raceKey).(models.Race)
	if !ok {
		return fmt.Errorf("race not extracted")
	}
	ctx := c.Request().Context()
	events, err := v.core.TimingEvents.FindByRace(ctx, race.ID)
	if err != nil {
		c.Logger().Error(err)
		return err
	}
	parts, err := v.core.RaceParts.FindByRace(ctx, race.ID)
	if err != nil {
		c.Logger().Error(err)
		return err
	}
	codes := map[int64]string{}
	for _, part := range parts {
		codes[part.ID] = part.Code
	}
	bibs := map[int64]int64{}
	rows := [][]string{{
		"id", "part_code", "bib_number", "duration", "end_time",
		"start_time", "create_time",
	}}
	for _, event := range events {
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
		duration := ""
		if event.Duration != 0 {
			duration = models.FormatDuration(int64(event.Duration))
		}
		rows = append(rows, []string{
			strconv.FormatInt(event.ID, 10),
			codes[event.PartID],
			strconv.FormatInt(bib, 10),
			duration,
			formatOptInt(int64(event.EndTime)),
			formatOptInt(int64(event.StartTime)),
			strconv.FormatInt(event.CreateTime, 10),
		})
	}
	return writeCSV(c, "timing-events.csv", rows)
}

func formatOptInt(value int64) string {
	if value == 0 {
		return ""
	}
	return strconv.FormatInt(value, 10)
}

func (v *View) exportResultsCSV(c echo.Context) error {
	race, ok := c.Get(raceKey).(models.Race)
	if !ok {
		return fmt.Errorf("race not extracted")
	}
	part, ok := c.Get(racePartKey).(models.RacePart)
	if !ok {
		return fmt.Errorf("part not extracted")
	}
	results, err := v.results.BuildResults(c.Request().Context(), race, part)
	if err != nil {
		c.Logger().Error(err)
		return err
	}
	header := []string{
		"rank", "bib_number", "name", "group", "club", "duration",
	}
	for _, column := range results.Columns {
		header = append(header, column.Part.Code)
	}
	header = append(header, "note")
	rows := [][]string{header}
	for _, row := range results.Rows {
		rank := ""
		if row.Rank > 0 {
			rank = strconv.Itoa(row.Rank)
		}
		duration := ""
		if row.Duration != 0 {
			duration = models.FormatDuration(int64(row.Duration))
		}
		record := []string{
			rank,
			strconv.FormatInt(row.Participant.BibNumber, 10),
			row.Participant.FullName(),
			row.Participant.Group,
			string(row.Participant.Club),
			duration,
		}
		for _, split := range row.Splits {
			if split != 0 {
				record = append(
					record, models.FormatDuration(int64(split)),
				)
			} else {
				record = append(record, "")
			}
		}
		record = append(record, row.Note)
		rows = append(rows, record)
	}
	name := fmt.Sprintf("results-%s.csv", part.Code)
	return writeCSV(c, name, rows)
}
