// Package supervisor starts package-manager processes and exposes their
// standard error as a stream of lines followed by a single exit result.
//
// A supervised process is never cancelled once started; the caller drains
// [Process.Lines] until it is closed and then calls [Process.Wait] for the
// exit code. Lines are split on both newline and carriage return so that
// redrawn progress bars arrive as individual samples, and ANSI escape
// sequences are removed before delivery.
package supervisor
