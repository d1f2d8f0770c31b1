package app

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/quantmind-br/pkgjson-go/internal/utils"
)

// legacySuffixes are tried after a legacy entry point as written, in the
// order node probes them
var legacySuffixes = []string{
	".js", ".json", ".node",
	"/index.js", "/index.json", "/index.node",
}

// targetPath returns the file a target names under root, or "" when it
// names none.
//
// Targets from "exports" and "imports" must start with "./". Legacy entry
// points ("main", "module", "browser") are plain relative paths, so
// "index.js" and "./index.js" both qualify. Bare specifiers, URLs and
// anything that leaves root get no path.
func targetPath(root, target string, legacy bool) string {
	switch {
	case strings.HasPrefix(target, "./"):
	case legacy && isPlainRelative(target):
	default:
		return ""
	}

	p := utils.JoinTarget(root, target)
	if !utils.IsWithin(root, p) {
		return ""
	}
	return p
}

func isPlainRelative(target string) bool {
	if target == "" || strings.HasPrefix(target, "/") || filepath.IsAbs(target) {
		return false
	}
	// "file:...", "https://..." and windows drive letters
	return !strings.Contains(target, ":")
}

// statTarget checks that the file at p exists. Legacy entry points may
// omit the extension or name a directory holding an index file.
func statTarget(p string, legacy bool) error {
	info, err := os.Stat(p)
	if err == nil && (!legacy || !info.IsDir()) {
		return nil
	}
	if !legacy {
		return err
	}

	for _, suffix := range legacySuffixes {
		candidate := p + filepath.FromSlash(suffix)
		if ci, cerr := os.Stat(candidate); cerr == nil && !ci.IsDir() {
			return nil
		}
	}
	if err == nil {
		// a directory without an index file
		return &os.PathError{Op: "stat", Path: filepath.Join(p, "index.js"), Err: os.ErrNotExist}
	}
	return err
}
