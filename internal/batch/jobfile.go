// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/shoprank/pkg/types"
)

// DefaultMaxPages applies when neither a check nor the job defaults set
// max_pages.
const DefaultMaxPages = 10

// ErrNoChecks is returned for a job file without any checks.
var ErrNoChecks = errors.New("job file has no checks")

// JobFile is the on-disk list of rank checks to run.
type JobFile struct {
	Defaults Defaults `yaml:"defaults"`
	Checks   []Check  `yaml:"checks"`
}

// Defaults apply to every check that leaves the field unset.
type Defaults struct {
	MaxPages int `yaml:"max_pages,omitempty"`
}

// Check is one rank check in a job file.
type Check struct {
	Name        string `yaml:"name,omitempty"`
	Query       string `yaml:"query"`
	ProductName string `yaml:"product_name,omitempty"`
	MallName    string `yaml:"mall_name,omitempty"`
	Brand       string `yaml:"brand,omitempty"`
	MaxPages    int    `yaml:"max_pages,omitempty"`
}

// Target returns the check's filters.
func (c Check) Target() types.Target {
	return types.Target{ProductName: c.ProductName, MallName: c.MallName, Brand: c.Brand}
}

// Label names the check in output, falling back to the query.
func (c Check) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Query
}

// ReadJobFile loads and validates a job file.
func ReadJobFile(path string) (*JobFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job file: %w", err)
	}
	var jf JobFile
	if err := yaml.Unmarshal(data, &jf); err != nil {
		return nil, fmt.Errorf("parsing job file: %w", err)
	}
	if err := jf.Validate(); err != nil {
		return nil, err
	}
	return &jf, nil
}

// Validate checks that every entry has a query and a sane page limit.
func (jf *JobFile) Validate() error {
	if len(jf.Checks) == 0 {
		return ErrNoChecks
	}
	if jf.Defaults.MaxPages < 0 {
		return fmt.Errorf("defaults: max_pages must be positive, got %d", jf.Defaults.MaxPages)
	}
	for i, c := range jf.Checks {
		if strings.TrimSpace(c.Query) == "" {
			return fmt.Errorf("check %d (%s): query is required", i+1, c.Name)
		}
		if c.MaxPages < 0 {
			return fmt.Errorf("check %d (%s): max_pages must be positive, got %d", i+1, c.Label(), c.MaxPages)
		}
	}
	return nil
}

// MaxPagesFor resolves the page limit for c.
func (jf *JobFile) MaxPagesFor(c Check) int {
	switch {
	case c.MaxPages > 0:
		return c.MaxPages
	case jf.Defaults.MaxPages > 0:
		return jf.Defaults.MaxPages
	default:
		return DefaultMaxPages
	}
}

// ResultsFile is the on-disk record of a batch run.
type ResultsFile struct {
	Outcomes []Outcome `yaml:"outcomes"`
	Summary  Summary   `yaml:"summary"`
}

// Outcome pairs a check with its result or error.
type Outcome struct {
	Check  Check             `yaml:"check"`
	Result *types.RankResult `yaml:"result,omitempty"`
	Error  string            `yaml:"error,omitempty"`
}

// Summary counts outcomes.
type Summary struct {
	Found     int       `yaml:"found"`
	NotFound  int       `yaml:"not_found"`
	Failed    int       `yaml:"failed"`
	Timestamp time.Time `yaml:"timestamp"`
}

// Total returns the number of checks that ran.
func (s Summary) Total() int {
	return s.Found + s.NotFound + s.Failed
}

// WriteResultsFile saves rf as YAML.
func WriteResultsFile(path string, rf *ResultsFile) error {
	data, err := yaml.Marshal(rf)
	if err != nil {
		return fmt.Errorf("marshaling results file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadResultsFile loads a previously written results file.
func ReadResultsFile(path string) (*ResultsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results file: %w", err)
	}
	var rf ResultsFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing results file: %w", err)
	}
	return &rf, nil
}
