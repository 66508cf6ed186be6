package channelconfig

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wonny/volscan/internal/contracts"
	"github.com/wonny/volscan/internal/workbook"
)

// Source loads the configuration workbook from disk
type Source struct {
	path string
	now  func() time.Time
}

// NewSource creates a workbook-backed configuration source
func NewSource(path string) *Source {
	return &Source{path: path, now: time.Now}
}

// Path returns the watched workbook path
func (s *Source) Path() string {
	return s.path
}

// Load reads and parses the workbook. An unreadable file is a ConfigError;
// per-cell problems are returned inside the table.
func (s *Source) Load(ctx context.Context) (*contracts.ConfigTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	grid, err := workbook.Read(s.path)
	if err != nil {
		return nil, &contracts.ConfigError{Column: -1, Field: "configuration source", Value: s.path, Err: err}
	}

	return Build(grid, s.now()), nil
}

// Build parses an in-memory grid into a ConfigTable
func Build(grid contracts.Grid, loadedAt time.Time) *contracts.ConfigTable {
	set, errs := Parse(grid)
	return &contracts.ConfigTable{
		Grid:     grid,
		Channels: set,
		Errors:   errs,
		Hash:     Hash(grid),
		LoadedAt: loadedAt,
	}
}

// Hash returns the SHA256 of the grid's canonical JSON
func Hash(grid contracts.Grid) string {
	data, err := json.Marshal(grid)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Dump renders a parsed channel set as YAML
func Dump(set *contracts.ChannelSet) ([]byte, error) {
	out, err := yaml.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("marshal channel set: %w", err)
	}
	return out, nil
}
