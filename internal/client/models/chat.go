package models

// ChatRoute tells which endpoint answers a chat submission.
type ChatRoute string

const (
	// RouteGeneric is the general assistant with no file context.
	RouteGeneric ChatRoute = "generic"
	// RouteFileScoped answers against selected files of one collection.
	RouteFileScoped ChatRoute = "file-scoped"
)

// ChatRequest is one outbound chat submission.
type ChatRequest struct {
	Route        ChatRoute
	Message      string
	CollectionID string
	FileIDs      []string
	History      []Message
}
