// Package brew knows how to talk to Homebrew: where the binary lives, which
// arguments each task action maps to, how to read installed and outdated
// casks, and how to clear the quarantine attribute from a freshly
// installed application.
package brew
