package migration

import "strings"

// Timestamp layout expected at the front of a migration name,
// e.g. "20251207_100000_create_users".
const timestampLen = len("20060102_150405")

// CompareByName orders versions lexicographically by their full
// identifier string.
var CompareByName Comparator = ComparatorFunc(func(a, b Version) int {
	return strings.Compare(a.String(), b.String())
})

// CompareByTimestamp orders versions by the leading timestamp of their
// name, so that migrations from different namespaces interleave
// chronologically. Versions without a leading timestamp, or with equal
// timestamps, fall back to full-identifier comparison.
var CompareByTimestamp Comparator = ComparatorFunc(func(a, b Version) int {
	ta, aok := leadingTimestamp(a.Name())
	tb, bok := leadingTimestamp(b.Name())

	switch {
	case aok && bok:
		if c := strings.Compare(ta, tb); c != 0 {
			return c
		}
	case aok:
		return -1
	case bok:
		return 1
	}
	return strings.Compare(a.String(), b.String())
})

func leadingTimestamp(name string) (string, bool) {
	if len(name) < timestampLen {
		return "", false
	}
	stamp := name[:timestampLen]
	for i, c := range stamp {
		if i == len("20060102") {
			if c != '_' {
				return "", false
			}
			continue
		}
		if c < '0' || c > '9' {
			return "", false
		}
	}
	return stamp, true
}
