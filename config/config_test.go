package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testConfigData = `
{
	"server": {
		"host": "localhost",
		"port": 4242
	},
	"db": {
		"driver": "SQLite",
		"options": {
			"path": ":memory:"
		}
	},
	"security": {
		"passwordsalt": {
			"type": "Data",
			"data": "salt"
		},
		"adminlogin": "admin",
		"adminpassword": {
			"type": "Data",
			"data": "qwerty123"
		}
	},
	"log_level": "debug"
}
`

func TestLoadFromFile(t *testing.T) {
	file, err := os.CreateTemp(os.TempDir(), "timer-test-")
	if err != nil {
		t.Fatal("Error: ", err)
	}
	_, err = file.Write([]byte(testConfigData))
	_ = file.Close()
	defer func() {
		_ = os.Remove(file.Name())
	}()
	if err != nil {
		t.Fatal("Error: ", err)
	}
	_, err = LoadFromFile(filepath.Join(os.TempDir(), "timer-test-deleted"))
	if err == nil {
		t.Fatal("Expected error for config from deleted file")
	}
	cfg, err := LoadFromFile(file.Name())
	if err != nil {
		t.Fatal("Error: ", err)
	}
	if v := cfg.Server.Address(); v != "localhost:4242" {
		t.Errorf("Expected 'localhost:4242', got %q", v)
	}
	if cfg.DB.Driver != SQLiteDriver {
		t.Errorf("Expected SQLite driver, got %q", cfg.DB.Driver)
	}
	if cfg.Security.AdminLogin != "admin" {
		t.Errorf("Expected 'admin' login, got %q", cfg.Security.AdminLogin)
	}
	if _, err := cfg.LoggerLevel(); err != nil {
		t.Error("Error: ", err)
	}
}

func TestConfig_LoggerLevel(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error", "off"} {
		cfg := Config{LogLevel: level}
		if _, err := cfg.LoggerLevel(); err != nil {
			t.Error("Error: ", err)
		}
	}
	cfg := Config{LogLevel: "unsupported"}
	if _, err := cfg.LoggerLevel(); err == nil {
		t.Error("Expected error")
	}
}
