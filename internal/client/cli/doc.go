// Package cli provides the interactive learnassist command-line client.
//
// It wires configuration, the local SQLite store, the HTTP client and the
// orchestration services, and exposes them through a cobra command tree:
// an interactive REPL (the default) plus one-shot upload, ask, analyze and
// courses commands.
//
// Inside the REPL, Ctrl-C cancels the running command only. A background
// watcher pings the backend and shows online/offline in the prompt.
package cli
