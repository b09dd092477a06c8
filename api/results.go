package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/JeroenBertels/glh-timer/managers"
	"github.com/JeroenBertels/glh-timer/models"
)

func (v *View) registerResultsHandlers(g *echo.Group) {
	g.GET(
		"/v0/races/:race/parts/:part/results", v.observeResults,
		v.extractRace, v.extractRacePart,
	)
}

// ResultsRow represents result of single participant.
type ResultsRow struct {
	BibNumber int64    `json:"bib_number"`
	Name      string   `json:"name"`
	Group     string   `json:"group,omitempty"`
	Club      string   `json:"club,omitempty"`
	Rank      int      `json:"rank,omitempty"`
	Duration  string   `json:"duration,omitempty"`
	Splits    []string `json:"splits,omitempty"`
	Note      string   `json:"note,omitempty"`
}

// Results represents result table response.
type Results struct {
	Race    Race         `json:"race"`
	Part    RacePart     `json:"part"`
	Columns []RacePart   `json:"columns,omitempty"`
	Rows    []ResultsRow `json:"rows"`
}

func makeResults(results *managers.Results) Results {
	resp := Results{
		Race: makeRace(results.Race),
		Part: makeRacePart(results.Part),
	}
	for _, column := range results.Columns {
		resp.Columns = append(resp.Columns, makeRacePart(column.Part))
	}
	for _, row := range results.Rows {
		item := ResultsRow{
			BibNumber: row.Participant.BibNumber,
			Name:      row.Participant.FullName(),
			Group:     row.Participant.Group,
			Club:      string(row.Participant.Club),
			Rank:      row.Rank,
			Note:      row.Note,
		}
		if row.Duration != 0 {
			item.Duration = models.FormatDuration(int64(row.Duration))
		}
		for _, split := range row.Splits {
			if split != 0 {
				item.Splits = append(
					item.Splits, models.FormatDuration(int64(split)),
				)
			} else {
				item.Splits = append(item.Splits, "")
			}
		}
		resp.Rows = append(resp.Rows, item)
	}
	return resp
}

// observeResults returns result table of race part.
func (v *View) observeResults(c echo.Context) error {
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
	return c.JSON(http.StatusOK, makeResults(results))
}
