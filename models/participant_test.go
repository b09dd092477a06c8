package models

import (
	"context"
	"database/sql"
	"testing"

	"github.com/JeroenBertels/glh-timer/db"
)

func TestParticipantStore_Modify(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	store := NewParticipantStore(testDB, db.SQLite, "timer_participant")
	ctx := context.Background()
	participant := Participant{
		RaceID:    1,
		BibNumber: 42,
		FirstName: "Jan",
		LastName:  "Janssens",
		Group:     "M40",
		Club:      "GLH",
	}
	if err := store.Create(ctx, &participant); err != nil {
		t.Fatal("Error: ", err)
	}
	if participant.ID <= 0 {
		t.Fatal("ID should be greater than zero")
	}
	found, err := store.GetByBib(ctx, 1, 42)
	if err != nil {
		t.Fatal("Unable to find participant: ", err)
	}
	if found.FullName() != "Jan Janssens" {
		t.Fatalf("Invalid full name: %q", found.FullName())
	}
	if _, err := store.GetByBib(ctx, 1, 43); err != sql.ErrNoRows {
		t.Fatal("Expected sql.ErrNoRows")
	}
	if _, err := store.GetByBib(ctx, 2, 42); err != sql.ErrNoRows {
		t.Fatal("Expected sql.ErrNoRows")
	}
	duplicate := Participant{RaceID: 1, BibNumber: 42}
	if err := store.Create(ctx, &duplicate); err == nil {
		t.Fatal("Expected error for duplicate bib number")
	}
	sameBibOtherRace := Participant{RaceID: 2, BibNumber: 42}
	if err := store.Create(ctx, &sameBibOtherRace); err != nil {
		t.Fatal("Error: ", err)
	}
	participant.Group = "M50"
	if err := store.Update(ctx, participant); err != nil {
		t.Fatal("Error: ", err)
	}
	found, err = store.Get(ctx, participant.ID)
	if err != nil {
		t.Fatal("Unable to find participant: ", err)
	}
	if found.Group != "M50" {
		t.Fatal("Participant has invalid group")
	}
	if err := store.Delete(ctx, participant.ID); err != nil {
		t.Fatal("Error: ", err)
	}
	if _, err := store.Get(ctx, participant.ID); err != sql.ErrNoRows {
		t.Fatal("Participant should be deleted")
	}
}

func TestParticipantStore_FindByRace(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	store := NewParticipantStore(testDB, db.SQLite, "timer_participant")
	ctx := context.Background()
	for _, bib := range []int64{30, 10, 20} {
		participant := Participant{RaceID: 1, BibNumber: bib}
		if err := store.Create(ctx, &participant); err != nil {
			t.Fatal("Error: ", err)
		}
	}
	participants, err := store.FindByRace(ctx, 1)
	if err != nil {
		t.Fatal("Error: ", err)
	}
	if len(participants) != 3 {
		t.Fatalf("Expected 3 participants, got %d", len(participants))
	}
	for i, bib := range []int64{10, 20, 30} {
		if participants[i].BibNumber != bib {
			t.Fatal("Participants should be sorted by bib number")
		}
	}
}
