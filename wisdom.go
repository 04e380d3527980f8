package algotranspose

import (
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/algo-transpose/internal/planner"
)

// Wisdom is a concurrency-safe cache of measured kernel choices keyed by
// matrix edge, element width and CPU features.
type Wisdom = planner.Wisdom

// WisdomKey identifies a wisdom entry.
type WisdomKey = planner.WisdomKey

// WisdomEntry is one recorded kernel choice.
type WisdomEntry = planner.WisdomEntry

// Tuning is the parameter set stored with a wisdom entry.
type Tuning = planner.Tuning

// DefaultWisdom is consulted by NewPlan for KernelAuto and updated by
// measuring planners without an explicit cache.
var DefaultWisdom = planner.DefaultWisdom

// NewWisdom creates a new empty wisdom cache.
func NewWisdom() *Wisdom {
	return planner.NewWisdom()
}

// ImportWisdom loads wisdom data from a file.
// The file should be in the format produced by ExportWisdom.
func ImportWisdom(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open wisdom file: %w", err)
	}

	defer f.Close()

	if err := DefaultWisdom.Import(f); err != nil {
		return fmt.Errorf("failed to import wisdom: %w", err)
	}

	return nil
}

// ExportWisdom saves the default wisdom cache to a file.
func ExportWisdom(filename string) error {
	return ExportWisdomTo(filename, DefaultWisdom)
}

// ExportWisdomTo saves a specific wisdom cache to a file.
func ExportWisdomTo(filename string, wisdom *Wisdom) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create wisdom file: %w", err)
	}

	if err := wisdom.Export(file); err != nil {
		file.Close()
		return fmt.Errorf("failed to export wisdom: %w", err)
	}

	return file.Close()
}

// ImportWisdomFromString loads wisdom data from a string, for wisdom
// embedded in a binary.
func ImportWisdomFromString(data string) error {
	if err := DefaultWisdom.Import(strings.NewReader(data)); err != nil {
		return fmt.Errorf("failed to import wisdom from string: %w", err)
	}

	return nil
}

// ClearWisdom removes all entries from the default wisdom cache.
func ClearWisdom() {
	DefaultWisdom.Clear()
}

// WisdomLen returns the number of entries in the default wisdom cache.
func WisdomLen() int {
	return DefaultWisdom.Len()
}
