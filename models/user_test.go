package models

import (
	"context"
	"database/sql"
	"testing"

	"github.com/JeroenBertels/glh-timer/db"
)

func TestUserStore_Modify(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	store := NewUserStore(testDB, db.SQLite, "timer_user", "global-salt")
	ctx := context.Background()
	user := User{Login: "admin", Role: AdminRole}
	if err := store.SetPassword(&user, "qwerty123"); err != nil {
		t.Fatal("Error: ", err)
	}
	if err := store.Create(ctx, &user); err != nil {
		t.Fatal("Error: ", err)
	}
	if user.ID <= 0 {
		t.Fatal("ID should be greater than zero")
	}
	found, err := store.GetByLogin(ctx, "admin")
	if err != nil {
		t.Fatal("Unable to find user: ", err)
	}
	if !store.CheckPassword(found, "qwerty123") {
		t.Fatal("Expected valid password")
	}
	if store.CheckPassword(found, "qwerty124") {
		t.Fatal("Expected invalid password")
	}
	duplicate := User{Login: "admin", Role: AdminRole}
	if err := store.Create(ctx, &duplicate); err == nil {
		t.Fatal("Expected error for duplicate login")
	}
	user.Role = OrganizerRole
	user.RaceID = 5
	if err := store.Update(ctx, user); err != nil {
		t.Fatal("Error: ", err)
	}
	found, err = store.Get(ctx, user.ID)
	if err != nil {
		t.Fatal("Unable to find user: ", err)
	}
	if found.Role != OrganizerRole || found.RaceID != 5 {
		t.Fatal("User has invalid role")
	}
	if err := store.Delete(ctx, user.ID); err != nil {
		t.Fatal("Error: ", err)
	}
	if _, err := store.Get(ctx, user.ID); err != sql.ErrNoRows {
		t.Fatal("User should be deleted")
	}
}

func TestUser_HasRaceAccess(t *testing.T) {
	admin := User{Role: AdminRole}
	if !admin.HasRaceAccess(1) || !admin.HasRaceAccess(2) {
		t.Fatal("Admin should have access to all races")
	}
	organizer := User{Role: OrganizerRole, RaceID: 1}
	if !organizer.HasRaceAccess(1) {
		t.Fatal("Organizer should have access to own race")
	}
	if organizer.HasRaceAccess(2) {
		t.Fatal("Organizer should not have access to other races")
	}
}

func TestUserStore_SetPassword(t *testing.T) {
	store := NewUserStore(testDB, db.SQLite, "timer_user", "global-salt")
	var user User
	if err := store.SetPassword(&user, "qwerty123"); err != nil {
		t.Fatal("Error: ", err)
	}
	firstHash, firstSalt := user.PasswordHash, user.PasswordSalt
	if err := store.SetPassword(&user, "qwerty123"); err != nil {
		t.Fatal("Error: ", err)
	}
	if user.PasswordSalt == firstSalt {
		t.Fatal("Salts should not repeat")
	}
	if user.PasswordHash == firstHash {
		t.Fatal("Same password should have different hashes")
	}
	other := NewUserStore(testDB, db.SQLite, "timer_user", "other-salt")
	if other.CheckPassword(user, "qwerty123") {
		t.Fatal("Expected invalid password for other global salt")
	}
}
