package gallery

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// RecordKey returns the metadata key for an image id.
func RecordKey(id string) string {
	return KeyPrefix + id
}

// IDFromKey extracts the image id from a metadata key.
// The second return value is false if key does not carry the image prefix.
func IDFromKey(key string) (string, bool) {
	id, found := strings.CutPrefix(key, KeyPrefix)
	if !found || id == "" {
		return "", false
	}
	return id, true
}

// Tables holds configurable table names for SQL metadata backends.
type Tables struct {
	Records string `mapstructure:"records"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Records == "" {
		return errors.New("validate tables: records table name cannot be empty")
	}

	if !IsValidTableName(t.Records) {
		return fmt.Errorf("validate tables: invalid records table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Records)
	}

	return nil
}

// EscapeLikePattern escapes special LIKE characters (%, _, \) so a key prefix
// can be matched literally.
func EscapeLikePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, `\`, `\\`)
	pattern = strings.ReplaceAll(pattern, `%`, `\%`)
	pattern = strings.ReplaceAll(pattern, `_`, `\_`)
	return pattern
}
