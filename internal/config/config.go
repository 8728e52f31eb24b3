// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// Environment variables read at startup
const (
	EnvAPIKey           = "GOOGLE_API_KEY"
	EnvAPIKeyFallback   = "GEMINI_API_KEY"
	EnvLinkedInEmail    = "LINKEDIN_EMAIL"
	EnvLinkedInPassword = "LINKEDIN_PASSWORD"
	EnvDatabaseURL      = "DATABASE_URL"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; flags override file values and the environment fills remaining gaps.
type Config struct {
	// Inputs
	Resume   string `json:"resume,omitempty"`                                     // Path to the default resume file
	JobTitle string `json:"job_title,omitempty"`                                  // Desired job title
	Location string `json:"location,omitempty"`                                   // Desired location
	Catalog  string `json:"catalog,omitempty" validate:"omitempty,file"`          // Job catalog file (JSON or YAML)
	Export   string `json:"export,omitempty" validate:"omitempty,endswith=.xlsx"` // Ranked job spreadsheet output

	// Credentials
	APIKey           string `json:"api_key,omitempty"`                                   // Gemini API key
	LinkedInEmail    string `json:"linkedin_email,omitempty" validate:"omitempty,email"` // Site login username
	LinkedInPassword string `json:"-"`                                                   // Never read from the config file
	DatabaseURL      string `json:"database_url,omitempty" validate:"omitempty,url"`     // PostgreSQL connection URL for run history

	// Knowledge base
	NoRAG        bool `json:"no_rag,omitempty"`                                   // Ask for suggestions directly instead of through the knowledge base
	ChunkSize    int  `json:"chunk_size,omitempty" validate:"gte=0"`              // Knowledge base chunk size in runes
	ChunkOverlap *int `json:"chunk_overlap,omitempty" validate:"omitempty,gte=0"` // Knowledge base chunk overlap in runes; nil means default, 0 is allowed
	TopK         int  `json:"top_k,omitempty" validate:"gte=0,lte=50"`            // Chunks retrieved per question

	// Model
	Model             string `json:"model,omitempty"`                                // Overrides the advice and knowledge base model
	RequestsPerMinute int    `json:"requests_per_minute,omitempty" validate:"gte=0"` // Model call rate limit

	// Behavior
	Submit         bool `json:"submit,omitempty"`          // Click the final submit control
	Login          bool `json:"login,omitempty"`           // Sign in before applying
	ShowBrowser    bool `json:"show_browser,omitempty"`    // Run Chrome with a visible window
	NonInteractive bool `json:"non_interactive,omitempty"` // Always use the default resume, never prompt per job
	Verbose        bool `json:"verbose,omitempty"`         // Print detailed debug information
}

var validate = newValidator()

// newValidator reports fields by their config file key
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get current directory")
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config JSON")
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required inputs are checked by the command after prompting, not here.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(err, "config error")
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.Newf("config error: %s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "file":
		return fmt.Sprintf("'%s' file not found: %v", fe.Field(), fe.Value())
	case "gte", "lte":
		return fmt.Sprintf("'%s' must be %s %s", fe.Field(), map[string]string{"gte": ">=", "lte": "<="}[fe.Tag()], fe.Param())
	case "endswith":
		return fmt.Sprintf("'%s' must end with %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("'%s' is not a valid %s", fe.Field(), fe.Tag())
	}
}

// ApplyEnv fills empty credential fields from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if c.APIKey == "" {
		c.APIKey = getenv(EnvAPIKey)
	}
	if c.APIKey == "" {
		c.APIKey = getenv(EnvAPIKeyFallback)
	}
	if c.LinkedInEmail == "" {
		c.LinkedInEmail = getenv(EnvLinkedInEmail)
	}
	if c.LinkedInPassword == "" {
		c.LinkedInPassword = getenv(EnvLinkedInPassword)
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = getenv(EnvDatabaseURL)
	}
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Resume == "" {
		result.Resume = defaults.Resume
	}
	if result.JobTitle == "" {
		result.JobTitle = defaults.JobTitle
	}
	if result.Location == "" {
		result.Location = defaults.Location
	}
	if result.Catalog == "" {
		result.Catalog = defaults.Catalog
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}

	// Int fields: use default if zero
	if result.ChunkSize == 0 {
		result.ChunkSize = defaults.ChunkSize
	}
	if result.ChunkOverlap == nil && defaults.ChunkOverlap != nil {
		overlap := *defaults.ChunkOverlap
		result.ChunkOverlap = &overlap
	}
	if result.TopK == 0 {
		result.TopK = defaults.TopK
	}
	if result.RequestsPerMinute == 0 {
		result.RequestsPerMinute = defaults.RequestsPerMinute
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// Defaults returns the values used when neither flags, file nor environment set a field
func Defaults() Config {
	return Config{
		ChunkSize:         1000,
		ChunkOverlap:      Int(100),
		TopK:              4,
		RequestsPerMinute: 60,
	}
}

// Overlap returns the chunk overlap, or 0 when unset
func (c *Config) Overlap() int {
	if c.ChunkOverlap == nil {
		return 0
	}
	return *c.ChunkOverlap
}

// Int returns a pointer to v, for optional numeric fields
func Int(v int) *int {
	return &v
}
