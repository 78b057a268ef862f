// Package tui renders the live task board in the terminal.
//
// The model never talks to the runner. It re-reads a status.Board on a
// short tick, so the same board that feeds the state file and the HTTP
// API drives the screen.
package tui
