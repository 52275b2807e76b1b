// Package state is the client's application state: collections, the per
// collection file cache with its file → collection index, the selection, the
// message log and upload progress.
//
// State changes only through Store.Dispatch. Every action is applied to a
// private copy of the latest state under the store lock, so completions that
// land close together never overwrite each other with stale data. Readers get
// deep copies from Snapshot and from subscriber callbacks.
package state
