// Package ident checks template identifiers against the keywords of the
// generated Go code.
package ident

// maxLen is the length of the longest reserved word, "fallthrough".
const maxLen = 11

type padded = [maxLen]byte

func pad(s string) padded {
	var p padded
	for i := range p {
		p[i] = '_'
	}
	copy(p[:], s)
	return p
}

// buckets holds the reserved words grouped by exact length.
var buckets = func() [maxLen + 1][]padded {
	var b [maxLen + 1][]padded
	for _, kw := range []string{
		"break", "case", "chan", "const", "continue", "default", "defer",
		"else", "fallthrough", "for", "func", "go", "goto", "if", "import",
		"interface", "map", "package", "range", "return", "select", "struct",
		"switch", "type", "var",
	} {
		b[len(kw)] = append(b[len(kw)], pad(kw))
	}
	return b
}()

// IsReserved reports whether name is a Go keyword and thus cannot name a
// generated function.
func IsReserved(name string) bool {
	if len(name) > maxLen || len(name) == 0 {
		return false
	}
	key := pad(name)
	// Buckets hold at most a handful of words; a linear scan is enough.
	for _, kw := range buckets[len(name)] {
		if kw == key {
			return true
		}
	}
	return false
}
