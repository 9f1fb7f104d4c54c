package compare

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/scenariotest/pkg/archive"
	"github.com/arthur-debert/scenariotest/pkg/classify"
	"github.com/arthur-debert/scenariotest/pkg/errors"
	"github.com/arthur-debert/scenariotest/pkg/logging"
)

// Comparator drives the four comparison strategies. The zero value is not
// usable; construct with New.
type Comparator struct {
	// Hash digests binary file contents. Defaults to SHA256.
	Hash HashFunc

	// Superset is the matching mode used by the assertion entry points:
	// when true, extra entries in the actual tree are tolerated at the
	// top level.
	Superset bool

	// NestedSuperset decides, per slash-separated relative path, whether a
	// nested entry is compared in superset mode. Superset never inherits
	// from the parent level; when nil every nested level is exact.
	NestedSuperset func(rel string) bool

	log zerolog.Logger
}

// New returns a Comparator with default settings: SHA-256 digests, exact
// matching at every level.
func New() *Comparator {
	return &Comparator{
		Hash: SHA256,
		log:  logging.GetLogger("compare"),
	}
}

// Paths compares two paths of any kind, dispatching on classification.
// Both must classify identically; otherwise a KIND_MISMATCH error is
// returned so callers can tell "different kind" from "different content".
func (c *Comparator) Paths(expected, actual string, superset bool) (Result, error) {
	return c.comparePaths(expected, actual, "", superset)
}

// Directories compares two directory trees. Entries present in expected
// must exist in actual and compare equal. With superset true, extra actual
// entries are permitted at this level only.
func (c *Comparator) Directories(expected, actual string, superset bool) (Result, error) {
	for _, dir := range []string{expected, actual} {
		kind, err := classify.Classify(dir)
		if err != nil {
			return Result{}, err
		}
		if kind != classify.Directory {
			return Result{}, errors.Newf(errors.ErrInvalidInput, "%s is not a directory", dir)
		}
	}
	return c.compareDirs(expected, actual, "", superset)
}

// Archives extracts both archives into scoped temporary directories and
// compares the extracted trees. The temporary directories are removed on
// every exit path.
func (c *Comparator) Archives(expected, actual string, superset bool) (Result, error) {
	return c.compareArchives(expected, actual, "", superset)
}

// TextFiles compares two text files line by line under universal-newline
// normalization: CRLF, LF and CR terminators all compare equal.
func (c *Comparator) TextFiles(expected, actual string) (Result, error) {
	return c.compareText(expected, actual, actual)
}

// Binaries compares two files by digest equality.
func (c *Comparator) Binaries(expected, actual string) (Result, error) {
	return c.compareBinary(expected, actual, actual)
}

func (c *Comparator) comparePaths(expected, actual, rel string, superset bool) (Result, error) {
	expectedKind, err := classify.Classify(expected)
	if err != nil {
		return Result{}, err
	}
	actualKind, err := classify.Classify(actual)
	if err != nil {
		return Result{}, err
	}
	if expectedKind != actualKind {
		return Result{}, errors.Newf(errors.ErrKindMismatch,
			"%s is a %s but %s is a %s", expected, expectedKind, actual, actualKind).
			WithDetail("expected", expected).
			WithDetail("actual", actual)
	}

	switch expectedKind {
	case classify.Directory:
		return c.compareDirs(expected, actual, rel, superset)
	case classify.Archive:
		return c.compareArchives(expected, actual, rel, superset)
	case classify.TextFile:
		return c.compareText(expected, actual, label(rel, actual))
	default:
		return c.compareBinary(expected, actual, label(rel, actual))
	}
}

func (c *Comparator) compareDirs(expected, actual, rel string, superset bool) (Result, error) {
	expectedEntries, err := readNames(expected)
	if err != nil {
		return Result{}, err
	}
	actualEntries, err := readNames(actual)
	if err != nil {
		return Result{}, err
	}

	for _, name := range expectedEntries {
		childRel := path.Join(rel, name)
		if !contains(actualEntries, name) {
			return mismatch(childRel, MissingEntry, "present in expected tree only"), nil
		}

		res, err := c.comparePaths(
			filepath.Join(expected, name),
			filepath.Join(actual, name),
			childRel,
			c.nestedSupersetFor(childRel),
		)
		if err != nil {
			// A kind mismatch between matched entries is a difference,
			// not a caller error; fold it into the result.
			if errors.IsErrorCode(err, errors.ErrKindMismatch) {
				return mismatch(childRel, KindDiffers, err.Error()), nil
			}
			return Result{}, err
		}
		if !res.Equal {
			return res, nil
		}
	}

	if !superset {
		for _, name := range actualEntries {
			if !contains(expectedEntries, name) {
				return mismatch(path.Join(rel, name), ExtraEntry, "present in actual tree only"), nil
			}
		}
	}

	return equal(), nil
}

func (c *Comparator) compareArchives(expected, actual, rel string, superset bool) (Result, error) {
	expectedDir, cleanupExpected, err := archive.TempExtract(expected)
	if err != nil {
		return Result{}, err
	}
	defer cleanupExpected()

	actualDir, cleanupActual, err := archive.TempExtract(actual)
	if err != nil {
		return Result{}, err
	}
	defer cleanupActual()

	c.log.Trace().Str("expected", expected).Str("actual", actual).Msg("comparing extracted archives")
	return c.compareDirs(expectedDir, actualDir, rel, superset)
}

func (c *Comparator) compareText(expected, actual, label string) (Result, error) {
	expectedLines, err := readLines(expected)
	if err != nil {
		return Result{}, err
	}
	actualLines, err := readLines(actual)
	if err != nil {
		return Result{}, err
	}

	for i := 0; i < len(expectedLines) && i < len(actualLines); i++ {
		if expectedLines[i] != actualLines[i] {
			return mismatch(label, ContentDiffers,
				fmt.Sprintf("line %d differs: expected %q, actual %q", i+1, expectedLines[i], actualLines[i])), nil
		}
	}
	if len(actualLines) < len(expectedLines) {
		return mismatch(label, ContentDiffers,
			fmt.Sprintf("file ends at line %d, expected to continue", len(actualLines))), nil
	}
	if len(actualLines) > len(expectedLines) {
		return mismatch(label, ContentDiffers,
			fmt.Sprintf("file continues past line %d, expected to end", len(expectedLines))), nil
	}
	return equal(), nil
}

func (c *Comparator) compareBinary(expected, actual, label string) (Result, error) {
	hash := c.Hash
	if hash == nil {
		hash = SHA256
	}

	expectedDigest, err := hashFile(expected, hash)
	if err != nil {
		return Result{}, err
	}
	actualDigest, err := hashFile(actual, hash)
	if err != nil {
		return Result{}, err
	}

	if expectedDigest != actualDigest {
		return mismatch(label, ContentDiffers,
			fmt.Sprintf("digest mismatch: expected %s, actual %s", expectedDigest, actualDigest)), nil
	}
	return equal(), nil
}

func (c *Comparator) nestedSupersetFor(rel string) bool {
	if c.NestedSuperset == nil {
		return false
	}
	return c.NestedSuperset(rel)
}

func hashFile(path string, hash HashFunc) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Newf(errors.ErrNotFound, "%s does not exist", path)
		}
		return "", errors.Wrapf(err, errors.ErrInternal, "cannot read %s", path)
	}
	return hash(data), nil
}

// readLines loads a text file and splits it into lines under universal
// newline normalization. A trailing terminator yields a final empty line,
// so files differing only in a trailing newline compare unequal.
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrNotFound, "%s does not exist", path)
		}
		return nil, errors.Wrapf(err, errors.ErrInternal, "cannot read %s", path)
	}
	normalized := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	normalized = bytes.ReplaceAll(normalized, []byte("\r"), []byte("\n"))
	return strings.Split(string(normalized), "\n"), nil
}

// readNames lists a directory's immediate entry names in sorted order.
// Names are compared case-sensitively.
func readNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrNotFound, "%s does not exist", dir)
		}
		return nil, errors.Wrapf(err, errors.ErrInternal, "cannot list %s", dir)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

func contains(names []string, want string) bool {
	for _, name := range names {
		if name == want {
			return true
		}
	}
	return false
}

func label(rel, fallback string) string {
	if rel == "" {
		return fallback
	}
	return rel
}
