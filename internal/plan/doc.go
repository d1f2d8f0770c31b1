// Package plan loads resolution plans. A plan lists resolution checks to run
// in one batch, each naming a package, a request and the outcome it expects.
// It is meant for CI jobs guarding the public surface of a set of packages.
//
// # Plan Format
//
// Plans can be written in YAML or JSON format:
//
//	checks:
//	  - package: ./packages/core
//	    request: "."
//	    conditions: [node, import]
//	    expect: ./dist/index.js
//	  - package: ./packages/core
//	    request: "./internal/secret"
//	    expect_error: not_exported
//	  - package: ./packages/core
//	    request: "#dep"
//	    require: true
//	options:
//	  continue_on_error: true
//	  concurrency: 4
//
// A check with neither expect nor expect_error passes when the request
// resolves to anything. Package paths are relative to the plan file.
//
// # Usage
//
//	loader := plan.NewLoader()
//	p, err := loader.Load("checks.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, check := range p.Checks {
//	    target, err := resolve(check)
//	    if err := check.Evaluate(target, err); err != nil {
//	        // expectation not met
//	    }
//	}
//
// # Error Handling
//
// The package defines sentinel errors for common failure cases:
//   - ErrNoChecks: plan has no checks defined
//   - ErrEmptyRequest: check is missing the required request field
//   - ErrConflictingExpect: check sets both expect and expect_error
//   - ErrUnknownErrorKind: expect_error is not a known error kind
//   - ErrInvalidFormat: file is not valid YAML/JSON
//   - ErrFileNotFound: plan file does not exist
//   - ErrUnsupportedExt: unsupported file extension
//   - ErrExpectationFailed: a check did not produce the expected outcome
package plan
