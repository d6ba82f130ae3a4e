package generation

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashSpec computes the spec hash: a SHA-256 hex digest over the canonical
// serialization of the normalized request. Requests that differ only in list
// ordering, duplicate tags or absent-vs-omitted optionals hash identically;
// any change to an actual constraint value produces a different digest.
func HashSpec(spec NormalizedSpec) string {
	sum := sha256.Sum256(spec.CanonicalJSON())
	return hex.EncodeToString(sum[:])
}
