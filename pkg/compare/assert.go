package compare

import (
	"testing"

	"github.com/arthur-debert/scenariotest/pkg/errors"
)

// Assertion entry points for use inside tests. Each ...Equal /
// ...NotEqual pair is backed by the same comparison, so for any pair of
// comparable paths NotEqual(a, b) == !Equal(a, b). Paths that classify to
// different kinds count as not equal. A missing path is an error and fails
// both variants.

// AssertPathsEqual asserts that two paths have equal contents, dispatching
// on their classification. Uses the comparator's Superset mode.
func (c *Comparator) AssertPathsEqual(t testing.TB, expected, actual string) bool {
	t.Helper()
	res, err := c.Paths(expected, actual, c.Superset)
	return c.reportOutcome(t, res, err, true, expected, actual)
}

// AssertPathsNotEqual asserts that two paths differ in kind or content.
func (c *Comparator) AssertPathsNotEqual(t testing.TB, expected, actual string) bool {
	t.Helper()
	res, err := c.Paths(expected, actual, c.Superset)
	return c.reportOutcome(t, res, err, false, expected, actual)
}

// AssertDirectoriesEqual asserts that two directory trees have equal
// contents.
func (c *Comparator) AssertDirectoriesEqual(t testing.TB, expected, actual string) bool {
	t.Helper()
	res, err := c.Directories(expected, actual, c.Superset)
	return c.reportOutcome(t, res, err, true, expected, actual)
}

// AssertDirectoriesNotEqual asserts that two directory trees differ.
func (c *Comparator) AssertDirectoriesNotEqual(t testing.TB, expected, actual string) bool {
	t.Helper()
	res, err := c.Directories(expected, actual, c.Superset)
	return c.reportOutcome(t, res, err, false, expected, actual)
}

// AssertArchivesEqual asserts that two archives extract to equal trees.
func (c *Comparator) AssertArchivesEqual(t testing.TB, expected, actual string) bool {
	t.Helper()
	res, err := c.Archives(expected, actual, c.Superset)
	return c.reportOutcome(t, res, err, true, expected, actual)
}

// AssertArchivesNotEqual asserts that two archives extract to differing
// trees.
func (c *Comparator) AssertArchivesNotEqual(t testing.TB, expected, actual string) bool {
	t.Helper()
	res, err := c.Archives(expected, actual, c.Superset)
	return c.reportOutcome(t, res, err, false, expected, actual)
}

// AssertTextFilesEqual asserts that two text files compare equal line by
// line under universal-newline normalization.
func (c *Comparator) AssertTextFilesEqual(t testing.TB, expected, actual string) bool {
	t.Helper()
	res, err := c.TextFiles(expected, actual)
	return c.reportOutcome(t, res, err, true, expected, actual)
}

// AssertTextFilesNotEqual asserts that two text files differ.
func (c *Comparator) AssertTextFilesNotEqual(t testing.TB, expected, actual string) bool {
	t.Helper()
	res, err := c.TextFiles(expected, actual)
	return c.reportOutcome(t, res, err, false, expected, actual)
}

// AssertBinariesEqual asserts that two files carry the same digest.
func (c *Comparator) AssertBinariesEqual(t testing.TB, expected, actual string) bool {
	t.Helper()
	res, err := c.Binaries(expected, actual)
	return c.reportOutcome(t, res, err, true, expected, actual)
}

// AssertBinariesNotEqual asserts that two files carry different digests.
func (c *Comparator) AssertBinariesNotEqual(t testing.TB, expected, actual string) bool {
	t.Helper()
	res, err := c.Binaries(expected, actual)
	return c.reportOutcome(t, res, err, false, expected, actual)
}

// reportOutcome turns a comparison outcome into a test verdict. A kind
// mismatch counts as inequality; any other error fails the test outright.
func (c *Comparator) reportOutcome(t testing.TB, res Result, err error, wantEqual bool, expected, actual string) bool {
	t.Helper()

	isEqual := false
	switch {
	case err == nil:
		isEqual = res.Equal
	case errors.IsErrorCode(err, errors.ErrKindMismatch):
		isEqual = false
	default:
		t.Errorf("cannot compare %s and %s: %v", expected, actual, err)
		return false
	}

	if isEqual == wantEqual {
		return true
	}
	if wantEqual {
		if err != nil {
			t.Errorf("%s does not match %s: %v", actual, expected, err)
		} else {
			t.Errorf("%s does not match %s: %s", actual, expected, res.String())
		}
		return false
	}
	t.Errorf("%s unexpectedly matches %s", actual, expected)
	return false
}
