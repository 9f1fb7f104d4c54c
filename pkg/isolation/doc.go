// Package isolation gives each test an exclusively-owned temporary working
// directory, optionally populated with external resources, and guarantees
// teardown regardless of test outcome.
package isolation
