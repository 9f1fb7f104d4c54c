// Package classify determines which comparison strategy applies to a
// filesystem path: directory, archive, text file or binary file.
package classify
