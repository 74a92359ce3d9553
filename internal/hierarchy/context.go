package hierarchy

// Context records which parents a cached entry was fetched for, so that
// invalidating a parent can find its dependents without re-deriving keys.
type Context interface {
	kind() string
}

// WorkspaceContext tags the single workspaces entry.
type WorkspaceContext struct{}

// SpaceContext tags the spaces of one workspace.
type SpaceContext struct {
	WorkspaceID string
}

// FolderContext tags the folders of one space.
type FolderContext struct {
	SpaceID string
}

// ListContext tags the lists of one folder, or the folderless lists of a
// space when FolderID is empty. SpaceID may be unknown for folder lists.
type ListContext struct {
	SpaceID  string
	FolderID string
}

func (WorkspaceContext) kind() string { return "workspace" }
func (SpaceContext) kind() string     { return "space" }
func (FolderContext) kind() string    { return "folder" }
func (ListContext) kind() string      { return "list" }

// contextWire is the persisted form of a Context.
type contextWire struct {
	Kind        string `json:"kind"`
	WorkspaceID string `json:"workspaceId,omitempty"`
	SpaceID     string `json:"spaceId,omitempty"`
	FolderID    string `json:"folderId,omitempty"`
}

func toWire(c Context) contextWire {
	switch v := c.(type) {
	case SpaceContext:
		return contextWire{Kind: v.kind(), WorkspaceID: v.WorkspaceID}
	case FolderContext:
		return contextWire{Kind: v.kind(), SpaceID: v.SpaceID}
	case ListContext:
		return contextWire{Kind: v.kind(), SpaceID: v.SpaceID, FolderID: v.FolderID}
	default:
		return contextWire{Kind: WorkspaceContext{}.kind()}
	}
}

func fromWire(w contextWire) Context {
	switch w.Kind {
	case "space":
		return SpaceContext{WorkspaceID: w.WorkspaceID}
	case "folder":
		return FolderContext{SpaceID: w.SpaceID}
	case "list":
		return ListContext{SpaceID: w.SpaceID, FolderID: w.FolderID}
	default:
		return WorkspaceContext{}
	}
}
