// Package config loads and validates the pipesh configuration.
package config

import (
	_ "embed"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

//go:embed default/config.yaml
var defaultConfigData []byte

const (
	// ConfigurationName is the file name a config directory must contain.
	ConfigurationName = "config.yaml"
	// LogsDirName is where session event logs are written.
	LogsDirName = "session_logs"
)

// Configuration is the on-disk shell configuration.
type Configuration struct {
	configurationDir string

	// Prompt is the PS1 value used when the environment carries none.
	Prompt string `json:"prompt" validate:"required"`

	// Path is the default PATH exported when the environment carries none.
	Path string `json:"path" validate:"required"`

	// EchoStatus makes the read loop print "exit code: N" after a line
	// evaluates to a non-zero status.
	EchoStatus bool `json:"echo_status"`

	// EnvFirst makes the process environment shadow interpreter-local
	// variables during substitution. The default, false, gives locals
	// priority.
	EnvFirst bool `json:"env_first"`

	// Env holds extra variables exported into every session.
	Env map[string]string `json:"env"`

	// HistoryFile, if set, persists readline history across sessions.
	HistoryFile string `json:"history_file"`

	// LogSessions enables the JSON-lines session event log.
	LogSessions bool `json:"log_sessions"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// Dir returns the directory the configuration was loaded from.
func (c *Configuration) Dir() string {
	if c.configurationDir == "" {
		return "."
	}
	return c.configurationDir
}
