// Package confloader provides configuration loading mechanism.
//
// This package implements a flexible configuration loader over koanf
// that merges multiple sources into one typed struct.
//
// Features:
//
//   - Multiple Sources: files, environment variables, maps
//   - YAML configuration files
//   - Watch Support: change callbacks on config file edits
//   - Type Safety: unmarshaling into typed structs
//
// Priority (highest to lowest):
//
//  1. Environment variables (FEEDBACK_ prefixed)
//  2. Configuration file
//  3. Default values from the target struct
package confloader
