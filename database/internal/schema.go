package internal

import (
	"errors"
	"fmt"
	"slices"
)

// Column is a column's type and nullability as the database reports them.
// Types are compared lower-case.
type Column struct {
	Type     string
	Nullable bool
}

// CheckColumns compares the columns found for table against want. No columns
// at all means the table is absent. Every mismatch is reported.
func CheckColumns(table string, want, got map[string]Column) error {
	if len(got) == 0 {
		return fmt.Errorf("table %s does not exist", table)
	}

	names := make([]string, 0, len(want))
	for name := range want {
		names = append(names, name)
	}
	slices.Sort(names)

	var errs []error
	for _, name := range names {
		w := want[name]
		g, ok := got[name]
		if !ok {
			errs = append(errs, fmt.Errorf("missing column %s", name))
			continue
		}
		if g.Type != w.Type {
			errs = append(errs, fmt.Errorf("column %s: expected %s, got %s", name, w.Type, g.Type))
		}
		if g.Nullable != w.Nullable {
			errs = append(errs, fmt.Errorf("column %s: expected nullable=%t, got nullable=%t", name, w.Nullable, g.Nullable))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("table %s: %w", table, errors.Join(errs...))
	}
	return nil
}
