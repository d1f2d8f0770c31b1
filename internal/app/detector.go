package app

import (
	"strings"

	"github.com/quantmind-br/pkgjson-go/internal/domain"
)

// DetectRequest classifies a request by its leading characters.
// '#' specifiers go through "imports", "." and "./x" through "exports",
// and anything else is taken as a reference to the package by its name.
func DetectRequest(request string) domain.RequestKind {
	switch {
	case strings.HasPrefix(request, "#"):
		return domain.RequestImport
	case request == "." || strings.HasPrefix(request, "./"):
		return domain.RequestSubpath
	default:
		return domain.RequestSelf
	}
}
