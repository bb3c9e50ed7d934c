package migration

import "strings"

// Version is the immutable identity of a migration, derived from its
// fully-qualified identifier string. Two versions are equal when their
// identifiers are equal.
type Version struct {
	id string
}

// NewVersion builds a Version from a fully-qualified identifier.
// Identifiers take the form "namespace/name"; a plain name has an empty
// namespace.
func NewVersion(identifier string) Version {
	return Version{id: identifier}
}

func (v Version) String() string { return v.id }

func (v Version) Equal(other Version) bool { return v.id == other.id }

// Namespace returns the portion of the identifier before the last "/",
// or "" when the identifier is a plain name.
func (v Version) Namespace() string {
	if i := strings.LastIndex(v.id, "/"); i >= 0 {
		return v.id[:i]
	}
	return ""
}

// Name returns the portion of the identifier after the last "/".
func (v Version) Name() string {
	if i := strings.LastIndex(v.id, "/"); i >= 0 {
		return v.id[i+1:]
	}
	return v.id
}

// AvailableMigration pairs a Version with its loaded definition.
// It is never mutated after creation.
type AvailableMigration struct {
	Version   Version
	Migration Migration
}
