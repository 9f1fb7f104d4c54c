// Package archive provides extraction of zip and tar-family archives
// into directories, used when comparing archive contents.
package archive
