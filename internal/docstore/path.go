package docstore

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is returned for paths with empty segments or reserved characters.
var ErrInvalidPath = errors.New("invalid path")

const reservedChars = ".#$[]"

// Clean trims surrounding slashes and validates every segment. The empty
// string is the root.
func Clean(p string) (string, error) {
	p = strings.Trim(p, "/")
	if p == "" {
		return "", nil
	}
	for _, seg := range strings.Split(p, "/") {
		if err := validSegment(seg); err != nil {
			return "", fmt.Errorf("%w %q: %v", ErrInvalidPath, p, err)
		}
	}
	return p, nil
}

// Join concatenates segments with slashes. It does not validate them.
func Join(segs ...string) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		s = strings.Trim(s, "/")
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

// HasPrefix reports whether p equals prefix or lies beneath it.
func HasPrefix(p, prefix string) bool {
	if prefix == "" || p == prefix {
		return true
	}
	return strings.HasPrefix(p, prefix+"/")
}

func validSegment(seg string) error {
	if seg == "" {
		return errors.New("empty segment")
	}
	if strings.ContainsAny(seg, reservedChars) {
		return fmt.Errorf("segment %q contains one of %q", seg, reservedChars)
	}
	return nil
}

// ancestors lists the proper ancestors of p, nearest to the root first.
func ancestors(p string) []string {
	var out []string
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			out = append(out, p[:i])
		}
	}
	return out
}

// subtreeBounds returns the half-open key range holding every descendant of p.
// '0' is the byte after '/', so [p/, p0) covers exactly the p/... keys.
func subtreeBounds(p string) (lo, hi string) {
	return p + "/", p + "0"
}
