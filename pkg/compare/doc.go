// Package compare implements recursive content comparison over directories,
// archives, text files and binary files.
//
// Comparisons are asymmetric in naming only: the first argument is the
// expected tree, the second the actual tree. In superset mode extra entries
// in the actual tree are tolerated; missing expected entries never are.
// Superset mode applies to a single directory level and does not propagate
// into nested directories unless the comparator is configured to do so for
// a specific relative path.
package compare
