package api

import (
	"testing"
)

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func testRaceForm() RaceForm {
	return RaceForm{
		Title:    strPtr("Test race"),
		Date:     strPtr("2026-06-01"),
		Timezone: strPtr("Europe/Amsterdam"),
	}
}

func TestCreateRace(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	client := newTestClient()
	if _, err := client.CreateRace(testRaceForm()); err == nil {
		t.Fatal("Expected error for unauthorized create")
	}
	if _, err := client.Login("admin", "qwerty123"); err != nil {
		t.Fatal("Error: ", err)
	}
	race, err := client.CreateRace(testRaceForm())
	if err != nil {
		t.Fatal("Error: ", err)
	}
	if race.Title != "Test race" {
		t.Fatal("Invalid title: ", race.Title)
	}
	races, err := client.ObserveRaces()
	if err != nil {
		t.Fatal("Error: ", err)
	}
	if len(races.Races) != 1 {
		t.Fatal("Invalid amount of races: ", len(races.Races))
	}
	parts, err := client.ObserveRaceParts(race.ID)
	if err != nil {
		t.Fatal("Error: ", err)
	}
	if len(parts.Parts) != 1 || parts.Parts[0].Code != "overall" {
		t.Fatal("Expected overall part to be created with race")
	}
}

func TestCreateRaceInvalidForm(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	client := newTestClient()
	if _, err := client.Login("admin", "qwerty123"); err != nil {
		t.Fatal("Error: ", err)
	}
	form := testRaceForm()
	form.Date = strPtr("01-06-2026")
	if _, err := client.CreateRace(form); err == nil {
		t.Fatal("Expected error for invalid date")
	}
	form = testRaceForm()
	form.Title = strPtr("")
	if _, err := client.CreateRace(form); err == nil {
		t.Fatal("Expected error for empty title")
	}
	form = testRaceForm()
	form.Timezone = strPtr("Mars/Olympus")
	if _, err := client.CreateRace(form); err == nil {
		t.Fatal("Expected error for invalid timezone")
	}
}

func TestRaceParts(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	client := newTestClient()
	if _, err := client.Login("admin", "qwerty123"); err != nil {
		t.Fatal("Error: ", err)
	}
	race, err := client.CreateRace(testRaceForm())
	if err != nil {
		t.Fatal("Error: ", err)
	}
	part, err := client.CreateRacePart(race.ID, RacePartForm{
		Code:  strPtr("swim"),
		Title: strPtr("Swim"),
		Kind:  strPtr("duration"),
	})
	if err != nil {
		t.Fatal("Error: ", err)
	}
	if part.Code != "swim" {
		t.Fatal("Invalid code: ", part.Code)
	}
	if _, err := client.CreateRacePart(race.ID, RacePartForm{
		Code:  strPtr("swim"),
		Title: strPtr("Swim again"),
	}); err == nil {
		t.Fatal("Expected error for duplicate code")
	}
	if _, err := client.CreateRacePart(race.ID, RacePartForm{
		Code:  strPtr("overall"),
		Title: strPtr("Overall"),
	}); err == nil {
		t.Fatal("Expected error for reserved code")
	}
	parts, err := client.ObserveRaceParts(race.ID)
	if err != nil {
		t.Fatal("Error: ", err)
	}
	if len(parts.Parts) != 2 {
		t.Fatal("Invalid amount of parts: ", len(parts.Parts))
	}
	if err := client.DeleteRacePart(race.ID, part.ID); err != nil {
		t.Fatal("Error: ", err)
	}
	var overall int64
	for _, part := range parts.Parts {
		if part.Code == "overall" {
			overall = part.ID
		}
	}
	if err := client.DeleteRacePart(race.ID, overall); err == nil {
		t.Fatal("Expected error for overall part delete")
	}
}

func TestDeleteRace(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	client := newTestClient()
	if _, err := client.Login("admin", "qwerty123"); err != nil {
		t.Fatal("Error: ", err)
	}
	race, err := client.CreateRace(testRaceForm())
	if err != nil {
		t.Fatal("Error: ", err)
	}
	if _, err := client.CreateParticipant(race.ID, ParticipantForm{
		BibNumber: int64Ptr(1),
		FirstName: strPtr("Jan"),
		LastName:  strPtr("Jansen"),
	}); err != nil {
		t.Fatal("Error: ", err)
	}
	if err := client.DeleteRace(race.ID); err != nil {
		t.Fatal("Error: ", err)
	}
	races, err := client.ObserveRaces()
	if err != nil {
		t.Fatal("Error: ", err)
	}
	if len(races.Races) != 0 {
		t.Fatal("Expected no races after delete")
	}
	if err := client.DeleteRace(race.ID); err == nil {
		t.Fatal("Expected error for deleted race")
	}
}
