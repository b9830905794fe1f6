package xsd

import "strings"

// NormalizeQName strips namespace decoration before any primitive-table
// lookup or registry key comparison. Both Clark notation ("{uri}local") and
// prefix notation ("prefix:local") collapse to the bare local part.
func NormalizeQName(qname string) string {
	if qname == "" {
		return qname
	}
	if qname[0] == '{' {
		if idx := strings.IndexByte(qname, '}'); idx >= 0 {
			return qname[idx+1:]
		}
		return qname
	}
	if idx := strings.IndexByte(qname, ':'); idx >= 0 {
		return qname[idx+1:]
	}
	return qname
}

// SplitPrefixed splits "prefix:local" into its two parts; an unprefixed name
// returns an empty prefix.
func SplitPrefixed(qname string) (prefix, local string) {
	if idx := strings.IndexByte(qname, ':'); idx >= 0 {
		return qname[:idx], qname[idx+1:]
	}
	return "", qname
}

// MakeQName joins a prefix and local name, omitting the colon when prefix is
// empty.
func MakeQName(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}
