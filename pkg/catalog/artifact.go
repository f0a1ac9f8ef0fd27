// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArtifactID is the sentinel wrapped by InvalidArtifactIDError.
	ErrInvalidArtifactID = errors.New("invalid artifact identifier")

	// ErrPathCollision is the sentinel wrapped by PathCollisionError.
	ErrPathCollision = errors.New("catalog path collision")
)

type (
	// ArtifactID identifies one artifact page, e.g. "finance/q1". It is
	// supplied by whatever enumerates the available pages and is used verbatim
	// as the path of the corresponding file node.
	ArtifactID string

	// InvalidArtifactIDError reports an identifier that cannot be placed in the
	// tree: empty, absolute, or containing an empty, "." or ".." segment.
	InvalidArtifactIDError struct {
		ID     ArtifactID
		Reason string
	}

	// PathCollisionError reports two artifacts claiming the same catalog path,
	// either as a file and a folder or as the same file twice. It points at a
	// naming inconsistency in the discovery source.
	PathCollisionError struct {
		Path     string
		Existing Kind
		Claimed  Kind
	}
)

// String returns the identifier as a string.
func (id ArtifactID) String() string {
	return string(id)
}

// Validate returns an InvalidArtifactIDError when id cannot be placed in a
// catalog tree.
func (id ArtifactID) Validate() error {
	_, err := id.Segments()
	return err
}

// Segments splits id into its path segments.
func (id ArtifactID) Segments() ([]string, error) {
	s := string(id)
	if strings.TrimSpace(s) == "" {
		return nil, &InvalidArtifactIDError{ID: id, Reason: "empty identifier"}
	}
	if strings.HasPrefix(s, Separator) {
		return nil, &InvalidArtifactIDError{ID: id, Reason: "identifier must be relative"}
	}
	segments := strings.Split(s, Separator)
	for _, seg := range segments {
		switch seg {
		case "":
			return nil, &InvalidArtifactIDError{ID: id, Reason: "empty path segment"}
		case ".", "..":
			return nil, &InvalidArtifactIDError{ID: id, Reason: fmt.Sprintf("relative segment %q", seg)}
		}
	}
	return segments, nil
}

// Name returns the last segment of id.
func (id ArtifactID) Name() string {
	s := string(id)
	if i := strings.LastIndex(s, Separator); i >= 0 {
		return s[i+1:]
	}
	return s
}

// IDs converts strings to artifact identifiers.
func IDs(ss ...string) []ArtifactID {
	ids := make([]ArtifactID, len(ss))
	for i, s := range ss {
		ids[i] = ArtifactID(s)
	}
	return ids
}

// Error implements the error interface.
func (e *InvalidArtifactIDError) Error() string {
	return fmt.Sprintf("invalid artifact identifier %q: %s", string(e.ID), e.Reason)
}

// Unwrap returns ErrInvalidArtifactID for errors.Is compatibility.
func (e *InvalidArtifactIDError) Unwrap() error {
	return ErrInvalidArtifactID
}

// Error implements the error interface.
func (e *PathCollisionError) Error() string {
	if e.Existing == e.Claimed {
		return fmt.Sprintf("duplicate artifact %q", e.Path)
	}
	return fmt.Sprintf("catalog path %q is claimed as both a %s and a %s", e.Path, e.Existing, e.Claimed)
}

// Unwrap returns ErrPathCollision for errors.Is compatibility.
func (e *PathCollisionError) Unwrap() error {
	return ErrPathCollision
}
