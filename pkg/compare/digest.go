package compare

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/arthur-debert/scenariotest/pkg/errors"
)

// HashFunc maps file contents to a digest string. Binary files whose
// digests match are treated as equal; hash collisions are an accepted
// limitation of digest-based comparison, not something this package
// defends against.
type HashFunc func([]byte) string

// SHA256 is the default digest for binary comparison.
func SHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// BLAKE3 is a faster alternative digest.
func BLAKE3(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashByName resolves a digest name from configuration or CLI flags.
func HashByName(name string) (HashFunc, error) {
	switch name {
	case "", "sha256":
		return SHA256, nil
	case "blake3":
		return BLAKE3, nil
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown digest %q (want sha256 or blake3)", name)
	}
}
