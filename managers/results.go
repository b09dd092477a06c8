package managers

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/JeroenBertels/glh-timer/core"
	"github.com/JeroenBertels/glh-timer/models"
)

// MissingStartTimeError means that group of participant has
// no start time and there is no default start time to fall
// back to.
type MissingStartTimeError struct {
	Group string
}

// Error returns error message.
func (e *MissingStartTimeError) Error() string {
	if e.Group == models.DefaultGroup {
		return "no default start time"
	}
	return fmt.Sprintf("no start time for group %q", e.Group)
}

// ResultsManager builds result tables for race parts.
type ResultsManager struct {
	raceParts    *models.RacePartStore
	participants *models.ParticipantStore
	timingEvents *models.TimingEventStore
	startTimes   *models.StartTimeStore
}

// NewResultsManager creates new instance of results manager.
func NewResultsManager(core *core.Core) *ResultsManager {
	return &ResultsManager{
		raceParts:    core.RaceParts,
		participants: core.Participants,
		timingEvents: core.TimingEvents,
		startTimes:   core.StartTimes,
	}
}

// ResultsColumn represents per part column of overall table.
type ResultsColumn struct {
	Part models.RacePart
}

// ResultsRow represents result of single participant.
//
// Duration of zero with empty Note never happens: rows either
// carry a positive duration or a note explaining its absence.
type ResultsRow struct {
	Participant models.Participant
	Duration    models.NInt64
	Rank        int
	Splits      []models.NInt64
	Note        string
}

// Results represents result table of race part.
type Results struct {
	Race    models.Race
	Part    models.RacePart
	Columns []ResultsColumn
	Rows    []ResultsRow
}

// BuildResults builds result table for part of race.
func (m *ResultsManager) BuildResults(
	ctx context.Context, race models.Race, part models.RacePart,
) (*Results, error) {
	participants, err := m.participants.FindByRace(ctx, race.ID)
	if err != nil {
		return nil, err
	}
	results := Results{Race: race, Part: part}
	if part.IsOverall() {
		if err := m.buildOverallRows(
			ctx, race, participants, &results,
		); err != nil {
			return nil, err
		}
	} else {
		if err := m.buildPartRows(
			ctx, part, participants, &results,
		); err != nil {
			return nil, err
		}
	}
	sortResultsRows(results.Rows)
	rank := 0
	for i := range results.Rows {
		if results.Rows[i].Duration > 0 {
			rank++
			results.Rows[i].Rank = rank
		}
	}
	return &results, nil
}

func (m *ResultsManager) buildPartRows(
	ctx context.Context,
	part models.RacePart,
	participants []models.Participant,
	results *Results,
) error {
	durations, notes, err := m.BestDurations(ctx, part)
	if err != nil {
		return err
	}
	for _, participant := range participants {
		row := ResultsRow{Participant: participant}
		if duration, ok := durations[participant.ID]; ok {
			row.Duration = models.NInt64(duration)
		} else if note, ok := notes[participant.ID]; ok {
			row.Note = note
		} else {
			row.Note = "DNF"
		}
		results.Rows = append(results.Rows, row)
	}
	return nil
}

func (m *ResultsManager) buildOverallRows(
	ctx context.Context,
	race models.Race,
	participants []models.Participant,
	results *Results,
) error {
	parts, err := m.raceParts.FindByRace(ctx, race.ID)
	if err != nil {
		return err
	}
	var columns []ResultsColumn
	durationsByColumn := map[int]map[int64]int64{}
	for _, part := range parts {
		if part.IsOverall() {
			continue
		}
		durations, _, err := m.BestDurations(ctx, part)
		if err != nil {
			return err
		}
		durationsByColumn[len(columns)] = durations
		columns = append(columns, ResultsColumn{Part: part})
	}
	results.Columns = columns
	for _, participant := range participants {
		row := ResultsRow{Participant: participant}
		var total int64
		var missing []string
		for i, column := range columns {
			duration, ok := durationsByColumn[i][participant.ID]
			if !ok {
				missing = append(missing, column.Part.Code)
				row.Splits = append(row.Splits, 0)
				continue
			}
			total += duration
			row.Splits = append(row.Splits, models.NInt64(duration))
		}
		if len(missing) == len(columns) {
			// Participant without any timed part is not listed.
			continue
		}
		if len(missing) == 0 {
			row.Duration = models.NInt64(total)
		} else {
			row.Note = "DNF: " + strings.Join(missing, ", ")
		}
		results.Rows = append(results.Rows, row)
	}
	return nil
}

// BestDurations returns minimal durations of participants in part.
//
// Second returned map contains notes for participants without
// duration whose events could not be resolved.
func (m *ResultsManager) BestDurations(
	ctx context.Context, part models.RacePart,
) (map[int64]int64, map[int64]string, error) {
	events, err := m.timingEvents.FindByPart(ctx, part.ID)
	if err != nil {
		return nil, nil, err
	}
	durations := map[int64]int64{}
	notes := map[int64]string{}
	for _, event := range events {
		duration, err := m.eventDuration(ctx, event)
		if err != nil {
			notes[event.ParticipantID] = err.Error()
			continue
		}
		if duration < 0 {
			continue
		}
		best, ok := durations[event.ParticipantID]
		if !ok || duration < best {
			durations[event.ParticipantID] = duration
		}
	}
	for id := range durations {
		delete(notes, id)
	}
	return durations, notes, nil
}

// eventDuration resolves duration of single timing event in seconds.
//
// Negative result means that event has no usable duration.
func (m *ResultsManager) eventDuration(
	ctx context.Context, event models.TimingEvent,
) (int64, error) {
	if event.Duration != 0 {
		return int64(event.Duration), nil
	}
	if event.EndTime == 0 {
		return -1, nil
	}
	start := int64(event.StartTime)
	if start == 0 {
		participant, err := m.participants.Get(ctx, event.ParticipantID)
		if err != nil {
			return -1, nil
		}
		start, err = m.resolveStart(ctx, event.PartID, participant.Group)
		if err != nil {
			return -1, err
		}
	}
	duration := int64(event.EndTime) - start
	if duration < 0 {
		return -1, fmt.Errorf("finish before start")
	}
	return duration, nil
}

// resolveStart returns start time for group with fallback to
// the default group.
func (m *ResultsManager) resolveStart(
	ctx context.Context, partID int64, group string,
) (int64, error) {
	startTime, err := m.startTimes.GetByGroup(ctx, partID, group)
	if err == sql.ErrNoRows && group != models.DefaultGroup {
		startTime, err = m.startTimes.GetByGroup(
			ctx, partID, models.DefaultGroup,
		)
	}
	if err == sql.ErrNoRows {
		return 0, &MissingStartTimeError{Group: group}
	}
	if err != nil {
		return 0, err
	}
	return startTime.Time, nil
}

func sortResultsRows(rows []ResultsRow) {
	sortFunc(rows, func(lhs, rhs ResultsRow) bool {
		if (lhs.Duration > 0) != (rhs.Duration > 0) {
			return lhs.Duration > 0
		}
		if lhs.Duration != rhs.Duration {
			return lhs.Duration < rhs.Duration
		}
		return lhs.Participant.BibNumber < rhs.Participant.BibNumber
	})
}

func sortFunc[T any](a []T, less func(T, T) bool) {
	impl := sortFuncImpl[T]{data: a, less: less}
	sort.Sort(&impl)
}

type sortFuncImpl[T any] struct {
	data []T
	less func(T, T) bool
}

func (s *sortFuncImpl[T]) Len() int {
	return len(s.data)
}

func (s *sortFuncImpl[T]) Swap(i, j int) {
	s.data[i], s.data[j] = s.data[j], s.data[i]
}

func (s *sortFuncImpl[T]) Less(i, j int) bool {
	return s.less(s.data[i], s.data[j])
}
