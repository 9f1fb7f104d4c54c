package isolation

import (
	"os"

	"github.com/arthur-debert/scenariotest/pkg/errors"
	"github.com/arthur-debert/scenariotest/pkg/fsutil"
)

// Strategy attaches one external resource into the isolated working
// directory. Connect runs with the working directory already switched to
// the isolated one, so internalRel resolves inside it.
type Strategy interface {
	Connect(externalAbs, internalRel string) error
	String() string
}

// Symlink links the destination to the external path. It fails fast where
// symlinks are unsupported; it never falls back to copying.
var Symlink Strategy = symlinkStrategy{}

// Copy recursively duplicates the external path into the destination.
var Copy Strategy = copyStrategy{}

// CustomStrategy adapts a caller-supplied function into a Strategy. The
// harness makes no assumption about what it does, only that it completes
// before the test body runs.
type CustomStrategy func(externalAbs, internalRel string) error

func (f CustomStrategy) Connect(externalAbs, internalRel string) error {
	return f(externalAbs, internalRel)
}

func (f CustomStrategy) String() string { return "custom" }

type symlinkStrategy struct{}

func (symlinkStrategy) Connect(externalAbs, internalRel string) error {
	if err := os.Symlink(externalAbs, internalRel); err != nil {
		return errors.Wrapf(err, errors.ErrIsolationSetup,
			"cannot symlink %s to %s (symlinks may be unsupported on this filesystem)", internalRel, externalAbs)
	}
	return nil
}

func (symlinkStrategy) String() string { return "symlink" }

type copyStrategy struct{}

func (copyStrategy) Connect(externalAbs, internalRel string) error {
	if err := fsutil.CopyTree(externalAbs, internalRel); err != nil {
		return errors.Wrapf(err, errors.ErrIsolationSetup, "cannot copy %s to %s", externalAbs, internalRel)
	}
	return nil
}

func (copyStrategy) String() string { return "copy" }

// Connection declares one external resource to attach to each isolated
// working directory. The external resource is only referenced, never
// mutated.
type Connection struct {
	// ExternalPath locates the resource. Relative paths resolve against
	// the working directory that was current before isolation.
	ExternalPath string

	// InternalPath is the destination relative to the isolated directory.
	// Empty means the external path's base name.
	InternalPath string

	// Strategy defaults to Symlink when nil.
	Strategy Strategy
}
