package engine

import (
	"context"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Client is the connected editor, as seen from the dispatch layer.
type Client interface {
	// Configuration returns the string value of a settings key. A missing or
	// non-string value is reported as not ok.
	Configuration(ctx context.Context, section string, scope protocol.DocumentUri) (string, bool)
	ApplyEdit(ctx context.Context, label string, edit protocol.WorkspaceEdit) (bool, error)
	Notify(method string, params any)
	ActiveSelection(ctx context.Context) (Selection, bool)
}
