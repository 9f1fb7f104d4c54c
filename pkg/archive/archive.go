package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/arthur-debert/scenariotest/pkg/errors"
)

// archiveExtensions lists recognized archive suffixes, longest first so
// compound suffixes like .tar.gz win over .gz.
var archiveExtensions = []string{
	".tar.gz",
	".tar.bz2",
	".tar.xz",
	".zip",
	".tar",
	".tgz",
	".tbz2",
	".txz",
	".gz",
	".bz2",
	".xz",
}

// IsArchive reports whether the path carries a recognized archive extension.
// It inspects the name only, never the content.
func IsArchive(path string) bool {
	return Extension(path) != ""
}

// Extension returns the recognized archive suffix of path, or "" if none.
func Extension(path string) string {
	name := strings.ToLower(filepath.Base(path))
	for _, ext := range archiveExtensions {
		if strings.HasSuffix(name, ext) {
			return ext
		}
	}
	return ""
}

// Stem returns the file name with any recognized archive suffix removed.
// For non-archives it returns the name unchanged.
func Stem(path string) string {
	name := filepath.Base(path)
	if ext := Extension(path); ext != "" {
		return name[:len(name)-len(ext)]
	}
	return name
}

// Extract unpacks the archive at archivePath into destDir, which must exist.
// Entry names are constrained to stay inside destDir.
func Extract(archivePath, destDir string) error {
	if _, err := os.Stat(archivePath); err != nil {
		if os.IsNotExist(err) {
			return errors.Newf(errors.ErrNotFound, "archive %s does not exist", archivePath)
		}
		return errors.Wrapf(err, errors.ErrExtraction, "cannot stat archive %s", archivePath)
	}

	switch Extension(archivePath) {
	case ".zip":
		return extractZip(archivePath, destDir)
	case ".tar", ".tar.gz", ".tgz", ".gz", ".tar.bz2", ".tbz2", ".bz2", ".tar.xz", ".txz", ".xz":
		return extractTar(archivePath, destDir)
	default:
		return errors.Newf(errors.ErrExtraction, "unsupported archive extension: %s", filepath.Base(archivePath))
	}
}

// TempExtract extracts the archive into a fresh temporary directory and
// returns its path along with a cleanup function that removes it. The
// cleanup function is safe to call on every exit path.
func TempExtract(archivePath string) (string, func(), error) {
	tempDir, err := os.MkdirTemp("", "scenariotest-extract-")
	if err != nil {
		return "", nil, errors.Wrap(err, errors.ErrExtraction, "cannot create extraction directory")
	}
	cleanup := func() { _ = os.RemoveAll(tempDir) }

	if err := Extract(archivePath, tempDir); err != nil {
		cleanup()
		return "", nil, err
	}
	return tempDir, cleanup, nil
}

func extractZip(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return errors.Wrapf(err, errors.ErrExtraction, "cannot open zip archive %s", archivePath)
	}
	defer reader.Close()

	for _, entry := range reader.File {
		dest, err := secureJoin(destDir, entry.Name)
		if err != nil {
			return err
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0755); err != nil {
				return errors.Wrapf(err, errors.ErrExtraction, "cannot create directory %s", dest)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return errors.Wrapf(err, errors.ErrExtraction, "cannot create directory for %s", dest)
		}
		src, err := entry.Open()
		if err != nil {
			return errors.Wrapf(err, errors.ErrExtraction, "cannot read zip entry %s", entry.Name)
		}
		err = writeEntry(dest, src, entry.Mode())
		src.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func extractTar(archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return errors.Wrapf(err, errors.ErrExtraction, "cannot open archive %s", archivePath)
	}
	defer file.Close()

	var reader io.Reader = file
	switch Extension(archivePath) {
	case ".tar.gz", ".tgz", ".gz":
		gzr, err := gzip.NewReader(file)
		if err != nil {
			return errors.Wrapf(err, errors.ErrExtraction, "cannot read gzip stream in %s", archivePath)
		}
		defer gzr.Close()
		reader = gzr
	case ".tar.bz2", ".tbz2", ".bz2":
		reader = bzip2.NewReader(file)
	case ".tar.xz", ".txz", ".xz":
		xzr, err := xz.NewReader(file)
		if err != nil {
			return errors.Wrapf(err, errors.ErrExtraction, "cannot read xz stream in %s", archivePath)
		}
		reader = xzr
	}

	tr := tar.NewReader(reader)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, errors.ErrExtraction, "corrupt archive %s", archivePath)
		}

		dest, err := secureJoin(destDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, 0755); err != nil {
				return errors.Wrapf(err, errors.ErrExtraction, "cannot create directory %s", dest)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return errors.Wrapf(err, errors.ErrExtraction, "cannot create directory for %s", dest)
			}
			if err := writeEntry(dest, tr, header.FileInfo().Mode()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return errors.Wrapf(err, errors.ErrExtraction, "cannot create directory for %s", dest)
			}
			if err := os.Symlink(header.Linkname, dest); err != nil {
				return errors.Wrapf(err, errors.ErrExtraction, "cannot create symlink %s", dest)
			}
		default:
			// Hard links, devices and the like are not part of test
			// fixture trees; skip them.
		}
	}
}

// secureJoin joins an archive entry name onto destDir, rejecting names that
// would escape it.
func secureJoin(destDir, name string) (string, error) {
	cleaned := filepath.FromSlash(name)
	if !filepath.IsLocal(cleaned) {
		return "", errors.Newf(errors.ErrExtraction, "archive entry %q escapes extraction directory", name)
	}
	return filepath.Join(destDir, cleaned), nil
}

func writeEntry(dest string, src io.Reader, mode os.FileMode) error {
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return errors.Wrapf(err, errors.ErrExtraction, "cannot create file %s", dest)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return errors.Wrapf(err, errors.ErrExtraction, "cannot write file %s", dest)
	}
	return out.Close()
}
