package classify

import (
	"bytes"
	"io"
	"os"
	"unicode/utf8"

	"github.com/arthur-debert/scenariotest/pkg/archive"
	"github.com/arthur-debert/scenariotest/pkg/errors"
)

// Kind is the comparison strategy a path maps to.
type Kind int

const (
	Directory Kind = iota
	Archive
	TextFile
	BinaryFile
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case Directory:
		return "directory"
	case Archive:
		return "archive"
	case TextFile:
		return "text file"
	case BinaryFile:
		return "binary file"
	default:
		return "unknown"
	}
}

// probeSize is how much of a file is inspected to decide text vs binary.
const probeSize = 8192

// Classify inspects the path's current on-disk state and returns its Kind.
// It never mutates the filesystem. Returns a NOT_FOUND error if the path
// does not exist.
func Classify(path string) (Kind, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.Newf(errors.ErrNotFound, "%s does not exist", path)
		}
		return 0, errors.Wrapf(err, errors.ErrInternal, "cannot stat %s", path)
	}

	if info.IsDir() {
		return Directory, nil
	}
	if archive.IsArchive(path) {
		return Archive, nil
	}

	isText, err := probeText(path)
	if err != nil {
		return 0, err
	}
	if isText {
		return TextFile, nil
	}
	return BinaryFile, nil
}

// probeText reads a leading chunk of the file and reports whether it decodes
// cleanly as text: valid UTF-8 with no embedded NUL bytes. Line endings are
// irrelevant here; the text comparator normalizes them separately.
func probeText(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrInternal, "cannot open %s for probing", path)
	}
	defer file.Close()

	buf := make([]byte, probeSize)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return false, errors.Wrapf(err, errors.ErrInternal, "cannot read %s for probing", path)
	}
	// An empty file reads zero bytes and counts as text.
	chunk := buf[:n]

	if bytes.IndexByte(chunk, 0) >= 0 {
		return false, nil
	}

	// The probe window may split a multi-byte rune at its end; strip up to
	// three trailing continuation bytes before validating.
	if n == probeSize {
		chunk = trimPartialRune(chunk)
	}
	return utf8.Valid(chunk), nil
}

func trimPartialRune(chunk []byte) []byte {
	for i := 0; i < utf8.UTFMax-1 && len(chunk) > 0; i++ {
		r, size := utf8.DecodeLastRune(chunk)
		if r != utf8.RuneError || size != 1 {
			break
		}
		chunk = chunk[:len(chunk)-1]
	}
	return chunk
}
