package compare

import "fmt"

// Mismatch names the kind of difference found between two trees.
type Mismatch string

const (
	MissingEntry   Mismatch = "missing-entry"
	ExtraEntry     Mismatch = "extra-entry"
	ContentDiffers Mismatch = "content-differs"
	KindDiffers    Mismatch = "kind-differs"
)

// Result reports the outcome of one comparison call. It describes the first
// mismatch found; once returned it is never modified.
type Result struct {
	Equal    bool
	Path     string
	Mismatch Mismatch
	Detail   string
}

// String renders the result for failure messages.
func (r Result) String() string {
	if r.Equal {
		return "contents match"
	}
	if r.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", r.Path, r.Mismatch, r.Detail)
	}
	return fmt.Sprintf("%s: %s", r.Path, r.Mismatch)
}

func equal() Result {
	return Result{Equal: true}
}

func mismatch(path string, kind Mismatch, detail string) Result {
	return Result{Path: path, Mismatch: kind, Detail: detail}
}
