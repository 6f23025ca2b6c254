package config

// loader.go fills a Config from environment variables using struct tags:
//
//	env       primary variable name
//	envAlt    fallback name, read when the primary is unset
//	default   value used when neither is set
//	required  "true" makes an unset variable an error
//
// Every bad variable is reported, not only the first one.

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

var (
	validationModes = []string{"strict", "structural"}
	logLevels       = []string{"debug", "info", "warn", "error"}
	logFormats      = []string{"text", "json"}
)

// Load reads configuration from the process environment, applies defaults
// and validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom is Load with a custom variable source, such as a map in tests.
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), getenv); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// loadStruct populates the tagged fields of v, descending into nested
// structs. Failures are joined with errors.Join.
func loadStruct(v reflect.Value, getenv func(string) string) error {
	var errs []error

	for i := range v.NumField() {
		field, fv := v.Type().Field(i), v.Field(i)
		switch {
		case !fv.CanSet():
		case field.Type.Kind() == reflect.Struct && field.Type != timeType:
			errs = append(errs, loadStruct(fv, getenv))
		default:
			errs = append(errs, loadField(field, fv, getenv))
		}
	}
	return errors.Join(errs...)
}

func loadField(field reflect.StructField, fv reflect.Value, getenv func(string) string) error {
	name := field.Tag.Get("env")
	if name == "" {
		return nil
	}

	value := lookupEnv(getenv, name, field.Tag.Get("envAlt"))
	if value == "" {
		if field.Tag.Get("required") == "true" {
			return fmt.Errorf("required environment variable %s is not set", name)
		}
		value = field.Tag.Get("default")
	}
	if value == "" {
		return nil
	}

	if err := setField(fv, value); err != nil {
		return fmt.Errorf("invalid value for %s=%q: %w", name, value, err)
	}
	return nil
}

// lookupEnv returns the trimmed value of name, falling back to alt.
func lookupEnv(getenv func(string) string, name, alt string) string {
	if v := strings.TrimSpace(getenv(name)); v != "" || alt == "" {
		return v
	}
	return strings.TrimSpace(getenv(alt))
}

// setField parses value according to the field's type.
func setField(field reflect.Value, value string) error {
	kind := field.Kind()
	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))

	case field.CanInt():
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(n)

	case kind == reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case kind == reflect.String:
		field.SetString(value)

	case kind == reflect.Slice && field.Type().Elem().Kind() == reflect.String:
		field.Set(reflect.ValueOf(splitList(value)))

	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the loaded values and reports all problems at once.
func (c *Config) Validate() error {
	rateOn := c.Rate.Enabled

	checks := []struct {
		failed bool
		msg    string
	}{
		{c.Server.Port <= 0 || c.Server.Port > 65535,
			fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port)},
		{c.Server.ReadTimeout < 0, "SERVER_READ_TIMEOUT must be non-negative"},
		{c.Server.ShutdownTimeout <= 0, "SERVER_SHUTDOWN_TIMEOUT must be positive"},

		{!oneOf(c.Validation.Mode, validationModes),
			fmt.Sprintf("VALIDATION_MODE (%q) must be one of: %s", c.Validation.Mode, strings.Join(validationModes, ", "))},
		{c.Validation.MaxFileSize <= 0, "VALIDATION_MAX_FILE_SIZE must be positive"},
		{c.Validation.MaxConcurrent <= 0, "VALIDATION_MAX_CONCURRENT must be positive"},
		{c.Validation.MaxWaitTime <= 0, "VALIDATION_MAX_WAIT_TIME must be positive"},

		{rateOn && c.Rate.RequestsPerMinute <= 0,
			"RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled"},
		{rateOn && c.Rate.ValidateLimit <= 0,
			"RATE_LIMIT_VALIDATE must be positive when rate limiting is enabled"},

		{c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0,
			"REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth"},

		{!oneOf(c.Logging.Level, logLevels),
			fmt.Sprintf("LOG_LEVEL (%q) must be one of: %s", c.Logging.Level, strings.Join(logLevels, ", "))},
		{!oneOf(c.Logging.Format, logFormats),
			fmt.Sprintf("LOG_FORMAT (%q) must be one of: %s", c.Logging.Format, strings.Join(logFormats, ", "))},
	}

	var failed []string
	for _, ch := range checks {
		if ch.failed {
			failed = append(failed, ch.msg)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(failed, "\n  - "))
}

func oneOf(value string, allowed []string) bool {
	return slices.Contains(allowed, strings.ToLower(strings.TrimSpace(value)))
}

// String renders the config for startup logs with API keys masked.
func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Config{Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Validation: {Mode: %q, MaxFileSize: %d, MaxConcurrent: %d, MaxWaitTime: %s}, ",
		c.Validation.Mode, c.Validation.MaxFileSize, c.Validation.MaxConcurrent, c.Validation.MaxWaitTime)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d, ValidateLimit: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute, c.Rate.ValidateLimit)
	fmt.Fprintf(&b, "Security: {RequireAPIKey: %v, APIKeys: [MASKED x%d]}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys))
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}}", c.Logging.Level, c.Logging.Format)
	return b.String()
}
