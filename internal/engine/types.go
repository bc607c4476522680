package engine

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// InlayHintKind follows the 3.17 protocol numbering.
type InlayHintKind = protocol.UInteger

const (
	InlayHintKindType      InlayHintKind = 1
	InlayHintKindParameter InlayHintKind = 2
)

// InlayHint is the textDocument/inlayHint item. The 3.16 protocol package
// predates the request, so the shape is declared here.
type InlayHint struct {
	Position     protocol.Position `json:"position"`
	Label        string            `json:"label"`
	Kind         *InlayHintKind    `json:"kind,omitempty"`
	Tooltip      *string           `json:"tooltip,omitempty"`
	PaddingLeft  bool              `json:"paddingLeft,omitempty"`
	PaddingRight bool              `json:"paddingRight,omitempty"`
	Data         any               `json:"data,omitempty"`
}

type InlayHintParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	Range        protocol.Range                  `json:"range"`
}

// AutoInsertChange describes the edit that triggered an auto-insert request.
type AutoInsertChange struct {
	Range       protocol.Range `json:"range"`
	RangeOffset int            `json:"rangeOffset"`
	RangeLength int            `json:"rangeLength"`
	Text        string         `json:"text"`
}

type AutoInsertParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	Position     protocol.Position               `json:"position"`
	LastChange   AutoInsertChange                `json:"lastChange"`
}

// Selection is the active editor cursor as reported by the client.
type Selection struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	Position     protocol.Position               `json:"position"`
}
