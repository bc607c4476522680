package server

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	doc := params.TextDocument
	s.docs.Open(doc.URI, doc.Version, doc.Text)
	log.Debugf("Opened %s at version %d", doc.URI, doc.Version)
	return nil
}

func (s *Server) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	doc := params.TextDocument
	if err := s.docs.Change(doc.URI, doc.Version, params.ContentChanges); err != nil {
		log.Errorf("Dropping change to %s: %v", doc.URI, err)
		return err
	}
	return nil
}

// textDocumentDidClose forgets the live document. Snapshots taken for an
// in-flight rename are kept until that rename finishes.
func (s *Server) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	s.docs.Close(params.TextDocument.URI)
	return nil
}
