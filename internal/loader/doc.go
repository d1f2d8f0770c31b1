// Package loader reads package manifests from the filesystem.
//
// It is the I/O side of pkgjson: files are read, invalid UTF-8 is replaced
// with U+FFFD, the document is decoded by extension (.json, .yaml, .yml) and
// handed to pkgjson.Load. Parsed manifests can be cached through a
// domain.ManifestCache; concurrent loads of one path share a single read.
//
// Closest mirrors how Node finds the package scope of a file: it walks up
// from a directory until a manifest is found, without crossing a
// node_modules directory.
package loader
