package main

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestServerMain(t *testing.T) {
	cmd := cobra.Command{}
	cmd.Flags().String("config", "", "")
	_ = cmd.Flags().Set("config", "not-found")
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("Expected panic")
		}
	}()
	serverMain(&cmd, nil)
}

func TestMigrateMain(t *testing.T) {
	cmd := cobra.Command{}
	cmd.Flags().String("config", "", "")
	cmd.Flags().Bool("create-data", false, "")
	_ = cmd.Flags().Set("config", "not-found")
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("Expected panic")
		}
	}()
	migrateMain(&cmd, nil)
}

func TestResolveFile(t *testing.T) {
	if _, err := resolveFile("", "not-found"); err == nil {
		t.Fatal("Expected error for missing files")
	}
	if file, err := resolveFile("", "main.go", "client.go"); err != nil {
		t.Fatal("Error: ", err)
	} else if file != "main.go" {
		t.Fatal("Invalid file: ", file)
	}
}
