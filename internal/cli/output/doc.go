// Package output provides output formatting for feedback-bench.
//
// This package renders command results in three formats:
//
//   - table.go: ASCII tables via text/tabwriter
//   - json.go: indented JSON
//   - yaml.go: YAML via gopkg.in/yaml.v3
//
// It also provides terminal widgets for long-running commands:
//
//   - progress.go: progress bar showing percent and processed count
//   - spinner.go: indeterminate activity indicator
package output
