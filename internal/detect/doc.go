// Package detect classifies individual lines of package-manager stderr.
//
// Two independent, pluggable analyses run over every line:
//
//   - a [ProgressParser] turns download-bar lines into progress samples
//   - an [EscalationDetector] recognizes the messages sudo prints when it
//     needs a password or a terminal
//
// Both are pure functions of a single line. They keep no state between
// calls, so the same line always yields the same answer and feeding a line
// twice has no additional effect. Pattern and marker lists are exported so
// a change in the package manager's wording is a data edit.
package detect
