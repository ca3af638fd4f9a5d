package config

import (
	"fmt"
	"strings"

	"github.com/harun/edupilot/pkg/keepalive"
	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
)

// Validator validates configuration values
type Validator struct {
	schema gojsonschema.JSONLoader
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{schema: gojsonschema.NewStringLoader(Schema)}
}

// ValidateDocument checks a raw config file against Schema. Every
// violation is reported in one error.
func (v *Validator) ValidateDocument(data []byte) error {
	result, err := gojsonschema.Validate(v.schema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}

	return nil
}

// ValidateSchedule validates a keepalive cron expression
func (v *Validator) ValidateSchedule(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return fmt.Errorf("keepalive schedule cannot be empty")
	}
	if _, err := keepalive.ParseSchedule(expr); err != nil {
		return fmt.Errorf("invalid keepalive schedule %q: %w", expr, err)
	}
	return nil
}

// ValidateLogLevel validates a zerolog level name
func (v *Validator) ValidateLogLevel(level string) error {
	if level == "" {
		return nil
	}
	if _, err := zerolog.ParseLevel(level); err != nil {
		return fmt.Errorf("invalid log level %q (must be: trace, debug, info, warn, error)", level)
	}
	return nil
}
