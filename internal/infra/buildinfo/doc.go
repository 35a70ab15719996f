// Package buildinfo exposes build-time version information for
// feedback-go binaries.
package buildinfo
