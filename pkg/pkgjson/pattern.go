package pkgjson

import "strings"

// Match matches candidate against an exports or imports key.
//
// A key without '*' matches only itself. A key with one '*' matches any
// candidate that starts with the text before the '*' and ends with the text
// after it; the part in between is returned as the capture. The capture is
// never empty unless the key is exactly "*".
func Match(pattern, candidate string) (capture string, ok bool) {
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		return "", pattern == candidate
	}
	if strings.IndexByte(pattern[star+1:], '*') >= 0 {
		return "", false
	}

	prefix, suffix := pattern[:star], pattern[star+1:]
	if len(candidate) < len(prefix)+len(suffix) {
		return "", false
	}
	if !strings.HasPrefix(candidate, prefix) || !strings.HasSuffix(candidate, suffix) {
		return "", false
	}

	capture = candidate[len(prefix) : len(candidate)-len(suffix)]
	if capture == "" && (prefix != "" || suffix != "") {
		return "", false
	}
	return capture, true
}

// Substitute replaces every '*' in target with capture. A target without
// '*' is returned unchanged.
func Substitute(target, capture string) string {
	if !strings.Contains(target, "*") {
		return target
	}
	return strings.ReplaceAll(target, "*", capture)
}

// IsPattern reports whether key contains a wildcard
func IsPattern(key string) bool {
	return strings.Contains(key, "*")
}

func validPatternKey(key string) bool {
	return strings.Count(key, "*") <= 1
}
