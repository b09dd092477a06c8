package api

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/JeroenBertels/glh-timer/models"
)

func (v *View) registerParticipantHandlers(g *echo.Group) {
	g.GET(
		"/v0/races/:race/participants", v.observeParticipants,
		v.extractRace,
	)
	g.POST(
		"/v0/races/:race/participants", v.createParticipant,
		v.extractRace, v.requireRaceAccess,
	)
	g.POST(
		"/v0/races/:race/participants/import", v.importParticipants,
		v.extractRace, v.requireRaceAccess,
	)
	g.PATCH(
		"/v0/races/:race/participants/:participant", v.updateParticipant,
		v.extractRace, v.requireRaceAccess, v.extractParticipant,
	)
	g.DELETE(
		"/v0/races/:race/participants/:participant", v.deleteParticipant,
		v.extractRace, v.requireRaceAccess, v.extractParticipant,
	)
}

const participantKey = "participant"

// Participant represents participant response.
type Participant struct {
	ID        int64  `json:"id"`
	BibNumber int64  `json:"bib_number"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Group     string `json:"group,omitempty"`
	Club      string `json:"club,omitempty"`
	Sex       string `json:"sex,omitempty"`
}

// Participants represents participants response.
type Participants struct {
	Participants []Participant `json:"participants"`
}

func makeParticipant(participant models.Participant) Participant {
	return Participant{
		ID:        participant.ID,
		BibNumber: participant.BibNumber,
		FirstName: participant.FirstName,
		LastName:  participant.LastName,
		Group:     participant.Group,
		Club:      string(participant.Club),
		Sex:       string(participant.Sex),
	}
}

// extractParticipant extracts participant of extracted race from
// "participant" path parameter.
func (v *View) extractParticipant(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		race, ok := c.Get(raceKey).(models.Race)
		if !ok {
			resp := errorResponse{Message: "race not extracted"}
			return c.JSON(http.StatusInternalServerError, &resp)
		}
		id, err := strconv.ParseInt(c.Param("participant"), 10, 64)
		if err != nil {
			resp := errorResponse{Message: "invalid participant ID"}
			return c.JSON(http.StatusBadRequest, &resp)
		}
		participant, err := v.core.Participants.Get(
			c.Request().Context(), id,
		)
		if err == nil && participant.RaceID != race.ID {
			err = sql.ErrNoRows
		}
		if err != nil {
			if err == sql.ErrNoRows {
				resp := errorResponse{Message: "participant not found"}
				return c.JSON(http.StatusNotFound, &resp)
			}
			c.Logger().Error(err)
			return err
		}
		c.Set(participantKey, participant)
		return next(c)
	}
}

func (v *View) observeParticipants(c echo.Context) error {
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
	resp := Participants{}
	for _, participant := range participants {
		resp.Participants = append(
			resp.Participants, makeParticipant(participant),
		)
	}
	return c.JSON(http.StatusOK, resp)
}

// ParticipantForm represents participant form.
type ParticipantForm struct {
	BibNumber *int64  `json:"bib_number" form:"bib_number"`
	FirstName *string `json:"first_name" form:"first_name"`
	LastName  *string `json:"last_name" form:"last_name"`
	Group     *string `json:"group" form:"group"`
	Club      *string `json:"club" form:"club"`
	Sex       *string `json:"sex" form:"sex"`
}

func (f ParticipantForm) Update(participant *models.Participant) *errorResponse {
	errors := errorFields{}
	if f.BibNumber != nil {
		if *f.BibNumber <= 0 {
			errors["bib_number"] = errorField{
				Message: "bib number should be positive",
			}
		}
		participant.BibNumber = *f.BibNumber
	}
	if f.FirstName != nil {
		participant.FirstName = *f.FirstName
	}
	if f.LastName != nil {
		participant.LastName = *f.LastName
	}
	if f.FirstName != nil || f.LastName != nil {
		if participant.FullName() == "" {
			errors["first_name"] = errorField{Message: "name is empty"}
		}
	}
	if f.Group != nil {
		participant.Group = *f.Group
	}
	if f.Club != nil {
		participant.Club = models.NString(*f.Club)
	}
	if f.Sex != nil {
		participant.Sex = models.NString(*f.Sex)
	}
	if len(errors) > 0 {
		return &errorResponse{
			Message:       "form has invalid fields",
			InvalidFields: errors,
		}
	}
	return nil
}

func (v *View) createParticipant(c echo.Context) error {
	race, ok := c.Get(raceKey).(models.Race)
	if !ok {
		return fmt.Errorf("race not extracted")
	}
	var form ParticipantForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return err
	}
	if form.BibNumber == nil {
		zero := int64(0)
		form.BibNumber = &zero
	}
	if form.FirstName == nil {
		empty := ""
		form.FirstName = &empty
	}
	participant := models.Participant{RaceID: race.ID}
	if resp := form.Update(&participant); resp != nil {
		return c.JSON(http.StatusBadRequest, resp)
	}
	ctx := c.Request().Context()
	if _, err := v.core.Participants.GetByBib(
		ctx, race.ID, participant.BibNumber,
	); err == nil {
		resp := errorResponse{Message: "bib number already exists"}
		return c.JSON(http.StatusBadRequest, &resp)
	} else if err != sql.ErrNoRows {
		c.Logger().Error(err)
		return err
	}
	if err := v.core.Participants.Create(ctx, &participant); err != nil {
		c.Logger().Error(err)
		return err
	}
	return c.JSON(http.StatusCreated, makeParticipant(participant))
}

func (v *View) updateParticipant(c echo.Context) error {
	participant, ok := c.Get(participantKey).(models.Participant)
	if !ok {
		return fmt.Errorf("participant not extracted")
	}
	var form ParticipantForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return err
	}
	if resp := form.Update(&participant); resp != nil {
		return c.JSON(http.StatusBadRequest, resp)
	}
	ctx := c.Request().Context()
	if other, err := v.core.Participants.GetByBib(
		ctx, participant.RaceID, participant.BibNumber,
	); err == nil && other.ID != participant.ID {
		resp := errorResponse{Message: "bib number already exists"}
		return c.JSON(http.StatusBadRequest, &resp)
	} else if err != nil && err != sql.ErrNoRows {
		c.Logger().Error(err)
		return err
	}
	if err := v.core.Participants.Update(ctx, participant); err != nil {
		c.Logger().Error(err)
		return err
	}
	return c.JSON(http.StatusOK, makeParticipant(participant))
}

func (v *View) deleteParticipant(c echo.Context) error {
	participant, ok := c.Get(participantKey).(models.Participant)
	if !ok {
		return fmt.Errorf("participant not extracted")
	}
	ctx := c.Request().Context()
	if err := v.core.WrapTx(ctx, func(ctx context.Context) error {
		events, err := v.core.TimingEvents.FindByRace(
			ctx, participant.RaceID,
		)
		if err != nil {
			return err
		}
		for _, event := range events {
			if event.ParticipantID != participant.ID {
				continue
			}
			if err := v.core.TimingEvents.Delete(ctx, event.ID); err != nil {
				return err
			}
		}
		return v.core.Participants.Delete(ctx, participant.ID)
	}); err != nil {
		c.Logger().Error(err)
		return err
	}
	return c.JSON(http.StatusOK, makeParticipant(participant))
}

// ImportReport represents participant import response.
type ImportReport struct {
	Added   int      `json:"added"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

var importHeaderAliases = map[string]string{
	"bib":        "bib_number",
	"bib_number": "bib_number",
	"number":     "bib_number",
	"first_name": "first_name",
	"firstname":  "first_name",
	"last_name":  "last_name",
	"lastname":   "last_name",
	"name":       "last_name",
	"group":      "group",
	"wave":       "group",
	"category":   "group",
	"club":       "club",
	"team":       "club",
	"sex":        "sex",
	"gender":     "sex",
}

// importParticipants creates participants from uploaded CSV file.
//
// First row should contain column headers. Rows with invalid or
// duplicate bib numbers are skipped and reported.
func (v *View) importParticipants(c echo.Context) error {
	race, ok := c.Get(raceKey).(models.Race)
	if !ok {
		return fmt.Errorf("race not extracted")
	}
	header, err := c.FormFile("file")
	if err != nil {
		resp := errorResponse{Message: "file is required"}
		return c.JSON(http.StatusBadRequest, &resp)
	}
	file, err := header.Open()
	if err != nil {
		c.Logger().Error(err)
		return err
	}
	defer func() {
		_ = file.Close()
	}()
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	columns, err := reader.Read()
	if err != nil {
		resp := errorResponse{Message: "cannot read CSV header"}
		return c.JSON(http.StatusBadRequest, &resp)
	}
	fields := map[string]int{}
	for i, column := range columns {
		name := strings.ToLower(strings.TrimSpace(column))
		if field, ok := importHeaderAliases[name]; ok {
			if _, ok := fields[field]; !ok {
				fields[field] = i
			}
		}
	}
	if _, ok := fields["bib_number"]; !ok {
		resp := errorResponse{Message: "bib number column is required"}
		return c.JSON(http.StatusBadRequest, &resp)
	}
	cell := func(row []string, field string) string {
		if i, ok := fields[field]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	var report ImportReport
	ctx := c.Request().Context()
	if err := v.core.WrapTx(ctx, func(ctx context.Context) error {
		line := 1
		for {
			row, err := reader.Read()
			if err == io.EOF {
				return nil
			}
			line++
			if err != nil {
				report.Skipped++
				report.Errors = append(
					report.Errors,
					fmt.Sprintf("line %d: invalid row", line),
				)
				continue
			}
			bib, err := strconv.ParseInt(cell(row, "bib_number"), 10, 64)
			if err != nil || bib <= 0 {
				report.Skipped++
				report.Errors = append(
					report.Errors,
					fmt.Sprintf("line %d: invalid bib number", line),
				)
				continue
			}
			if _, err := v.core.Participants.GetByBib(
				ctx, race.ID, bib,
			); err == nil {
				report.Skipped++
				report.Errors = append(
					report.Errors,
					fmt.Sprintf("line %d: bib number %d exists", line, bib),
				)
				continue
			} else if err != sql.ErrNoRows {
				return err
			}
			participant := models.Participant{
				RaceID:    race.ID,
				BibNumber: bib,
				FirstName: cell(row, "first_name"),
				LastName:  cell(row, "last_name"),
				Group:     cell(row, "group"),
				Club:      models.NString(cell(row, "club")),
				Sex:       models.NString(cell(row, "sex")),
			}
			if err := v.core.Participants.Create(ctx, &participant); err != nil {
				return err
			}
			report.Added++
		}
	}); err != nil {
		c.Logger().Error(err)
		return err
	}
	return c.JSON(http.StatusOK, report)
}
