// Package pkgjson loads package.json manifests and resolves module requests
// against their "exports" and "imports" fields using the conditional exports
// algorithm.
//
// The package does no I/O. Callers parse the document (see package
// jsonvalue), call Load, and resolve against the returned Manifest, which is
// immutable and may be shared between goroutines.
//
// # Usage
//
//	v, err := jsonvalue.Parse(data)
//	if err != nil {
//	    return err
//	}
//	m, err := pkgjson.Load(v)
//	if err != nil {
//	    return err
//	}
//
//	target, err := pkgjson.ResolveExport(m, "./feature", pkgjson.ImportConditions())
//	target, err = pkgjson.ResolveImport(m, "#internal/util", pkgjson.RequireConditions())
//
// # Matching rules
//
// An exact subpath key always wins. Otherwise pattern keys (containing one
// '*') are tried in document order and the first match is used; keys are
// not ranked by specificity. Condition objects are also walked in document
// order, and "default" is always active. A null target disables the entry
// and stops the search, while a nested condition object with no active key
// lets the enclosing object continue with its next key.
//
// # Error Handling
//
// Load returns a *ManifestError wrapping one of:
//   - ErrManifestSyntax: a recognized field has the wrong shape
//   - ErrDuplicateImportKey: two "imports" keys are equal after NFC normalization
//   - ErrMixedExportsShape: "exports" mixes subpath keys and condition keys
//
// The resolvers return a *ResolutionError wrapping one of:
//   - ErrPackagePathNotExported: no usable "exports" entry
//   - ErrPackageImportNotDefined: no usable "imports" entry
//   - ErrInvalidPackageTarget: the selected target is absolute, escapes the package, or is a URL
//   - ErrInvalidModuleSpecifier: the request itself is malformed
package pkgjson
