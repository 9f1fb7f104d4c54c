// Package testutil provides fixture builders for scenariotest's own tests.
//
// Key components:
//   - WriteTree: Declarative on-disk tree setup from a map of relative paths
//   - WriteTarGz / WriteTarXz / WriteZip: Archive fixtures built in-memory
//
// All test data should be defined inline, not in external files, and each
// test should be completely isolated with no shared state.
package testutil
