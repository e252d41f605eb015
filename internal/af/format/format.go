// Package format reads and writes the two textual AF encodings used by
// the solver: apx (one `arg(..)`/`att(..)` fact per line) and tgf (a
// vertex list, a `#` separator, then an edge list). Each format has a
// companion updates grammar (apxm/tgfm) expressing ordered add/remove
// operations one update per line.
package format

import (
	"fmt"
	"strings"
)

// Kind selects one of the two supported encodings.
type Kind uint8

const (
	APX Kind = iota + 1
	TGF
)

func (k Kind) String() string {
	switch k {
	case APX:
		return "apx"
	case TGF:
		return "tgf"
	default:
		return fmt.Sprintf("format(%d)", uint8(k))
	}
}

// InstanceExt returns the file extension for initial instance files.
func (k Kind) InstanceExt() string {
	return k.String()
}

// UpdateExt returns the file extension for update files.
func (k Kind) UpdateExt() string {
	return k.String() + "m"
}

// ParseKind parses a format name as given on the command line.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "apx":
		return APX, nil
	case "tgf":
		return TGF, nil
	default:
		return 0, &Error{Line: 0, Detail: fmt.Sprintf("unknown format %q (supported: apx, tgf)", s)}
	}
}

// Kinds lists the supported formats in listing order.
func Kinds() []Kind {
	return []Kind{APX, TGF}
}

// Error reports malformed instance or update input. It is raised before
// any framework model is constructed from the input.
type Error struct {
	Line   int
	Detail string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("format error: line %d: %s", e.Line, e.Detail)
	}
	return "format error: " + e.Detail
}

// identifier grammar shared by both formats: the usual relaxed ICCMA
// argument names (letters, digits, underscore, dash; no leading dash).
func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		case c == '-' && i > 0:
		default:
			return false
		}
	}
	return true
}
