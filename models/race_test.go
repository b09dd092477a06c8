package models

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/JeroenBertels/glh-timer/db"
)

func TestRaceStore_Modify(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	store := NewRaceStore(testDB, db.SQLite, "timer_race")
	ctx := WithNow(context.Background(), time.Unix(1000, 0))
	race := Race{Title: "Test race", Date: "2026-06-01", Timezone: "UTC"}
	if err := store.Create(ctx, &race); err != nil {
		t.Fatal("Error: ", err)
	}
	if race.ID <= 0 {
		t.Fatal("ID should be greater than zero")
	}
	if race.CreateTime != 1000 {
		t.Fatalf("Expected create time 1000, got %d", race.CreateTime)
	}
	found, err := store.Get(ctx, race.ID)
	if err != nil {
		t.Fatal("Unable to find race: ", err)
	}
	if found.Title != race.Title {
		t.Fatal("Race has invalid title")
	}
	race.Title = "Updated race"
	if err := store.Update(ctx, race); err != nil {
		t.Fatal("Error: ", err)
	}
	found, err = store.Get(ctx, race.ID)
	if err != nil {
		t.Fatal("Unable to find race: ", err)
	}
	if found.Title != "Updated race" {
		t.Fatal("Race has invalid title")
	}
	if err := store.Delete(ctx, race.ID); err != nil {
		t.Fatal("Error: ", err)
	}
	if _, err := store.Get(ctx, race.ID); err != sql.ErrNoRows {
		t.Fatal("Race should be deleted")
	}
	if err := store.Update(ctx, race); err != sql.ErrNoRows {
		t.Fatal("Expected sql.ErrNoRows")
	}
}

func TestRaceStore_All(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	store := NewRaceStore(testDB, db.SQLite, "timer_race")
	ctx := context.Background()
	dates := []string{"2026-06-01", "2026-09-01", "2026-03-01"}
	for _, date := range dates {
		race := Race{Title: "Race " + date, Date: date, Timezone: "UTC"}
		if err := store.Create(ctx, &race); err != nil {
			t.Fatal("Error: ", err)
		}
	}
	races, err := store.All(ctx)
	if err != nil {
		t.Fatal("Error: ", err)
	}
	if len(races) != 3 {
		t.Fatalf("Expected 3 races, got %d", len(races))
	}
	for i := 0; i+1 < len(races); i++ {
		if races[i].Date < races[i+1].Date {
			t.Fatal("Races should be sorted by date in descending order")
		}
	}
}
