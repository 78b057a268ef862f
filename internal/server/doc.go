// Package server exposes the task runner over a local HTTP API.
//
// Routes:
//
//	GET  /health
//	POST /api/v1/tasks                 submit a task
//	GET  /api/v1/tasks                 board snapshot (?state=queued,running)
//	GET  /api/v1/tasks/:id             one task
//	GET  /api/v1/casks/installed       installed casks (?match=glob)
//	GET  /api/v1/casks/outdated        outdated casks (?match=glob)
//	GET  /ws/events                    live state, progress and notification events
//
// The server is meant for a UI process on the same machine and binds to the
// loopback interface by default.
package server
