// Package seed loads the initial park list from TOML.
package seed

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/okian/parkrank/internal/domain/model"
)

//go:embed parks.toml
var embeddedParks []byte

// Errors returned by Load and Parse.
var (
	ErrNoParks       = errors.New("seed file lists no parks")
	ErrMissingName   = errors.New("park name is required")
	ErrDuplicateName = errors.New("duplicate park name")
)

type document struct {
	Parks []model.NewPark `toml:"parks"`
}

// Load reads parks from path, or the embedded list when path is empty.
func Load(path string) ([]model.NewPark, error) {
	if path == "" {
		return Parse(embeddedParks)
	}
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a [[parks]] TOML document.
func Parse(data []byte) ([]model.NewPark, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode seed parks: %w", err)
	}
	if len(doc.Parks) == 0 {
		return nil, ErrNoParks
	}

	seen := make(map[string]struct{}, len(doc.Parks))
	for i := range doc.Parks {
		p := &doc.Parks[i]
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, fmt.Errorf("park #%d: %w", i+1, ErrMissingName)
		}
		key := strings.ToLower(p.Name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%q: %w", p.Name, ErrDuplicateName)
		}
		seen[key] = struct{}{}
	}
	return doc.Parks, nil
}
