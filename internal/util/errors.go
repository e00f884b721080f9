package util

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors used throughout pgrid
var (
	ErrNoSource          = errors.New("no row source given")
	ErrUnknownSource     = errors.New("unsupported source type")
	ErrEmptySource       = errors.New("source has no columns")
	ErrNoDatabase        = errors.New("no database URL configured")
	ErrStorageDisabled   = errors.New("view state storage is disabled")
	ErrUnknownConfigKey  = errors.New("unknown config key")
	ErrInvalidConfigType = errors.New("invalid value for config key")
)

// GridError is a structured error with context and suggestions
type GridError struct {
	Title       string   // Short error title
	Message     string   // Detailed message
	Context     string   // What was being attempted
	Causes      []string // Possible causes
	Suggestions []string // Actionable suggestions with commands
	Err         error    // Wrapped error
}

func (e *GridError) Error() string {
	if e.Err != nil {
		return e.Title + ": " + e.Err.Error()
	}
	return e.Title
}

func (e *GridError) Unwrap() error {
	return e.Err
}

// Format returns a nicely formatted error message
func (e *GridError) Format() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Error: %s\n", e.Title))

	if e.Message != "" {
		sb.WriteString(fmt.Sprintf("\n  %s\n", e.Message))
	}
	if e.Context != "" {
		sb.WriteString(fmt.Sprintf("\n  %s\n", e.Context))
	}
	if e.Err != nil && e.Message == "" {
		sb.WriteString(fmt.Sprintf("\n  %s\n", e.Err))
	}

	if len(e.Causes) > 0 {
		sb.WriteString("\n  Possible causes:\n")
		for _, cause := range e.Causes {
			sb.WriteString(fmt.Sprintf("    • %s\n", cause))
		}
	}

	if len(e.Suggestions) > 0 {
		sb.WriteString("\n  Try:\n")
		for _, sug := range e.Suggestions {
			sb.WriteString(fmt.Sprintf("    $ %s\n", sug))
		}
	}

	return sb.String()
}

// NewError creates a new GridError
func NewError(title string) *GridError {
	return &GridError{Title: title}
}

// WithMessage adds a detailed message
func (e *GridError) WithMessage(msg string) *GridError {
	e.Message = msg
	return e
}

// WithContext adds context about what was being attempted
func (e *GridError) WithContext(ctx string) *GridError {
	e.Context = ctx
	return e
}

// WithCauses adds possible causes
func (e *GridError) WithCauses(causes ...string) *GridError {
	e.Causes = append(e.Causes, causes...)
	return e
}

// WithSuggestions adds actionable suggestions
func (e *GridError) WithSuggestions(sugs ...string) *GridError {
	e.Suggestions = append(e.Suggestions, sugs...)
	return e
}

// Wrap wraps an underlying error
func (e *GridError) Wrap(err error) *GridError {
	e.Err = err
	return e
}

// ══════════════════════════════════════════════════════════════════════════
// Pre-built error constructors for common cases
// ══════════════════════════════════════════════════════════════════════════

// SourceError returns a structured error for an unreadable row source
func SourceError(path string, err error) *GridError {
	return NewError("Cannot read rows").
		WithContext(path).
		WithCauses(
			"The file does not exist or is not readable",
			"The file is not valid CSV or JSON",
			"A JSON source is not an array of objects",
		).
		WithSuggestions(
			"pgrid view data.csv    # CSV with a header row",
			"pgrid view data.json   # JSON array of objects",
		).
		Wrap(err)
}

// DatabaseConnectionError returns a structured error for DB connection issues
func DatabaseConnectionError(url string, err error) *GridError {
	return NewError("Cannot connect to database").
		WithContext(RedactURL(url)).
		WithCauses(
			"Database server is not running",
			"Invalid connection credentials",
			"Network connectivity issues",
			"Database does not exist",
		).
		WithSuggestions(
			"pgrid config get storage.url   # Check the configured URL",
			"pgrid view --db <url> --sql '<query>'",
		).
		Wrap(err)
}

// NoDatabaseError returns an error for a SQL source without a URL
func NoDatabaseError() *GridError {
	return NewError("No database configured").
		WithMessage("A --sql source needs a PostgreSQL connection URL").
		WithSuggestions(
			"pgrid view --db postgres://user@localhost/db --sql 'SELECT 1'",
			"export PGRID_STORAGE_URL=postgres://user@localhost/db",
		).
		Wrap(ErrNoDatabase)
}

// ExportError returns a structured error for a failed export
func ExportError(format, path string, err error) *GridError {
	return NewError(fmt.Sprintf("Export to %s failed", format)).
		WithContext(path).
		WithSuggestions(
			"pgrid export <source> --format plain   # Text formats always work",
		).
		Wrap(err)
}

// UnknownConfigKeyError returns an error for a config key that doesn't exist
func UnknownConfigKeyError(key string) *GridError {
	return NewError(fmt.Sprintf("Unknown config key '%s'", key)).
		WithSuggestions("pgrid config list      # Show all keys").
		Wrap(ErrUnknownConfigKey)
}

// MissingArgumentError returns an error for missing required argument
func MissingArgumentError(argName, example string) *GridError {
	e := NewError(fmt.Sprintf("Missing required argument: <%s>", argName))
	if example != "" {
		e.WithSuggestions(example)
	}
	return e
}

// RedactURL hides the password of a connection URL for display.
func RedactURL(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return url
	}
	user, _, hasPass := strings.Cut(creds, ":")
	if !hasPass {
		return url
	}
	return scheme + "://" + user + ":***@" + host
}
