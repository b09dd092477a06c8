package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/labstack/gommon/log"
)

// Version contains version of server.
var Version = "development"

// Config stores configuration for timer API server and client.
type Config struct {
	// DB contains database connection config.
	DB DB `json:""`
	// Server contains API server config.
	Server Server `json:""`
	// Security contains security config.
	Security Security `json:""`
	// LogLevel contains level of logging.
	//
	// Valid values: "debug", "info", "warn", "error", "off".
	LogLevel string `json:"log_level"`
}

// Server contains server config.
type Server struct {
	Host string `json:""`
	Port int    `json:""`
}

// Address returns string representation of server address.
func (s Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Security contains security config.
type Security struct {
	PasswordSalt  Secret `json:""`
	AdminLogin    string `json:""`
	AdminPassword Secret `json:""`
}

// LoggerLevel maps LogLevel string to gommon log level.
func (c Config) LoggerLevel() (log.Lvl, error) {
	switch c.LogLevel {
	case "", "info":
		return log.INFO, nil
	case "debug":
		return log.DEBUG, nil
	case "warn":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	default:
		return 0, fmt.Errorf("log level %q is not supported", c.LogLevel)
	}
}

// LoadFromFile loads configuration from json file.
func LoadFromFile(file string) (cfg Config, err error) {
	bytes, err := os.ReadFile(file)
	if err == nil {
		err = json.Unmarshal(bytes, &cfg)
	}
	return
}
