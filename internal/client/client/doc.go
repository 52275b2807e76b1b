// Package client talks to the learning-assistant backend and to the AI proxy.
//
// # Overview
//
// The package provides:
//  1. The Client interface: collections, files, uploads, generated
//     artifacts, cards, chat and direct media analysis.
//  2. HTTPClient, an implementation over net/http with per-request and
//     per-upload timeouts, bounded retry of idempotent calls and streamed
//     multipart uploads that report progress.
//  3. InitDatabase, which opens the local SQLite store and applies the
//     embedded goose migrations.
//
// # Error Handling
//
// Transport failures wrap ErrUnavailable. HTTP failures surface as
// *StatusError, which matches ErrUnauthorized and ErrNotFound through
// errors.Is. Responses that arrive with 2xx but carry an error field become
// *RemoteError. Describe turns any of these into a message fit for the
// conversation log.
//
// All calls accept a context.Context and stop when it is cancelled.
package client
