package plan

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/quantmind-br/pkgjson-go/pkg/pkgjson"
)

// Plan is a batch of resolution checks
type Plan struct {
	Checks  []Check `yaml:"checks" json:"checks"`
	Options Options `yaml:"options" json:"options"`
}

// Check is one resolution to perform and the outcome it must have
type Check struct {
	// Package is the package directory, or any path inside it
	Package string `yaml:"package" json:"package"`
	Request string `yaml:"request" json:"request"`
	// Conditions replace the configured defaults when set
	Conditions []string `yaml:"conditions,omitempty" json:"conditions,omitempty"`
	// Require selects the configured require conditions when Conditions is empty
	Require bool `yaml:"require,omitempty" json:"require,omitempty"`
	// Expect is the exact target the request must resolve to
	Expect string `yaml:"expect,omitempty" json:"expect,omitempty"`
	// ExpectError is the error kind the request must fail with
	ExpectError string `yaml:"expect_error,omitempty" json:"expect_error,omitempty"`
}

// Options are plan-wide settings
type Options struct {
	ContinueOnError bool `yaml:"continue_on_error" json:"continue_on_error"`
	Concurrency     int  `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`
}

// errorKinds maps expect_error values to resolution sentinels
var errorKinds = map[string]error{
	"not_exported":      pkgjson.ErrPackagePathNotExported,
	"not_defined":       pkgjson.ErrPackageImportNotDefined,
	"invalid_target":    pkgjson.ErrInvalidPackageTarget,
	"invalid_specifier": pkgjson.ErrInvalidModuleSpecifier,
}

// ErrorKinds returns the accepted expect_error values, sorted
func ErrorKinds() []string {
	kinds := make([]string, 0, len(errorKinds))
	for k := range errorKinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Validate validates the plan
func (p *Plan) Validate() error {
	if len(p.Checks) == 0 {
		return ErrNoChecks
	}
	for i, c := range p.Checks {
		if strings.TrimSpace(c.Request) == "" {
			return fmt.Errorf("check %d: %w", i, ErrEmptyRequest)
		}
		if c.Expect != "" && c.ExpectError != "" {
			return fmt.Errorf("check %d: %w", i, ErrConflictingExpect)
		}
		if c.ExpectError != "" {
			if _, ok := errorKinds[c.ExpectError]; !ok {
				return fmt.Errorf("check %d: %w %q (use one of %s)", i, ErrUnknownErrorKind, c.ExpectError, strings.Join(ErrorKinds(), ", "))
			}
		}
	}
	return nil
}

// ResolvePaths makes relative package paths relative to base
func (p *Plan) ResolvePaths(base string) {
	for i := range p.Checks {
		pkg := p.Checks[i].Package
		if pkg == "" {
			pkg = "."
		}
		if !filepath.IsAbs(pkg) {
			pkg = filepath.Join(base, filepath.FromSlash(pkg))
		}
		p.Checks[i].Package = pkg
	}
}

// Name describes the check in logs and reports
func (c Check) Name() string {
	return fmt.Sprintf("%s %s", c.Package, c.Request)
}

// Evaluate compares a resolution outcome with the expectation. It returns
// nil when the check passes.
func (c Check) Evaluate(target string, err error) error {
	if c.ExpectError != "" {
		want := errorKinds[c.ExpectError]
		if err == nil {
			return fmt.Errorf("%w: expected %s, resolved to %q", ErrExpectationFailed, c.ExpectError, target)
		}
		if !errors.Is(err, want) {
			return fmt.Errorf("%w: expected %s, got: %v", ErrExpectationFailed, c.ExpectError, err)
		}
		return nil
	}

	if err != nil {
		return fmt.Errorf("%w: %v", ErrExpectationFailed, err)
	}
	if c.Expect != "" && c.Expect != target {
		return fmt.Errorf("%w: expected %q, resolved to %q", ErrExpectationFailed, c.Expect, target)
	}
	return nil
}

// DefaultOptions returns options with sensible defaults
func DefaultOptions() Options {
	return Options{
		ContinueOnError: false,
		Concurrency:     4,
	}
}
