package server

import (
	contextpkg "context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// codeRequestCancelled is the protocol's RequestCancelled error code.
const codeRequestCancelled = -32800

// RunStdio serves the client on stdin and stdout until it disconnects.
func (s *Server) RunStdio() error {
	log.Info("reading from stdin, writing to stdout")
	s.Serve(contextpkg.Background(), stdrwc{})
	log.Info("stdin/stdout connection closed")
	return nil
}

// Serve runs one connection over stream.
//
// Notifications are handled in arrival order on the reading goroutine, so
// document changes are applied before any later request is read. Requests
// run on their own goroutines and may call back into the client.
func (s *Server) Serve(ctx contextpkg.Context, stream io.ReadWriteCloser) {
	inline := jsonrpc2.HandlerWithError(s.handle)
	handler := splitHandler{notifications: inline, requests: jsonrpc2.AsyncHandler(inline)}

	conn := jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(stream, jsonrpc2.VSCodeObjectCodec{}), handler, s.connectionOptions()...)
	s.setPeer(conn)
	<-conn.DisconnectNotify()
	s.close(contextpkg.Background())
}

func (s *Server) connectionOptions() []jsonrpc2.ConnOpt {
	if !s.debug {
		return nil
	}
	return []jsonrpc2.ConnOpt{jsonrpc2.LogMessages(&rpcLogger{commonlog.GetLogger(name + ".rpc")})}
}

type splitHandler struct {
	notifications jsonrpc2.Handler
	requests      jsonrpc2.Handler
}

func (h splitHandler) Handle(ctx contextpkg.Context, conn *jsonrpc2.Conn, request *jsonrpc2.Request) {
	if request.Notif {
		h.notifications.Handle(ctx, conn, request)
	} else {
		h.requests.Handle(ctx, conn, request)
	}
}

func (s *Server) handle(ctx contextpkg.Context, connection *jsonrpc2.Conn, request *jsonrpc2.Request) (any, error) {
	ctx, cancel := contextpkg.WithCancel(ctx)
	defer cancel()
	if !request.Notif {
		s.track(request.ID, cancel)
		defer s.untrack(request.ID)
	}

	glspContext := &glsp.Context{
		Method: request.Method,
		Notify: func(method string, params any) {
			if err := connection.Notify(ctx, method, params); err != nil {
				log.Errorf("%s: %v", method, err)
			}
		},
		Call: func(method string, params any, result any) {
			if err := connection.Call(ctx, method, params, result); err != nil {
				log.Errorf("%s: %v", method, err)
			}
		},
	}
	if request.Params != nil {
		glspContext.Params = *request.Params
	}
	s.bind(glspContext, ctx)
	defer s.unbind(glspContext)

	switch request.Method {
	case protocol.MethodCancelRequest:
		s.cancelRequest(glspContext.Params)
		return nil, nil

	case protocol.MethodExit:
		s.Handle(glspContext)
		return nil, connection.Close()
	}

	r, validMethod, validParams, err := s.Handle(glspContext)
	switch {
	case !validMethod:
		if strings.HasPrefix(request.Method, "$/") {
			// Optional notifications may be ignored.
			return nil, nil
		}
		return nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: fmt.Sprintf("method not supported: %s", request.Method),
		}
	case !validParams:
		e := &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams}
		if err != nil {
			e.Message = err.Error()
		}
		return nil, e
	case ctx.Err() != nil:
		return nil, &jsonrpc2.Error{Code: codeRequestCancelled, Message: "request cancelled"}
	case err != nil:
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidRequest, Message: err.Error()}
	}
	return r, nil
}

// bind makes ctx the context of the request behind glspContext.
func (s *Server) bind(glspContext *glsp.Context, ctx contextpkg.Context) {
	s.requestsMu.Lock()
	defer s.requestsMu.Unlock()
	s.contexts[glspContext] = ctx
}

func (s *Server) unbind(glspContext *glsp.Context) {
	s.requestsMu.Lock()
	defer s.requestsMu.Unlock()
	delete(s.contexts, glspContext)
}

// requestContext returns the context of the request behind glspContext.
// Requests that did not arrive over a connection get a background context.
func (s *Server) requestContext(glspContext *glsp.Context) contextpkg.Context {
	s.requestsMu.Lock()
	defer s.requestsMu.Unlock()
	if ctx, ok := s.contexts[glspContext]; ok {
		return ctx
	}
	return contextpkg.Background()
}

func (s *Server) track(id jsonrpc2.ID, cancel contextpkg.CancelFunc) {
	s.requestsMu.Lock()
	defer s.requestsMu.Unlock()
	s.cancels[id] = cancel
}

func (s *Server) untrack(id jsonrpc2.ID) {
	s.requestsMu.Lock()
	defer s.requestsMu.Unlock()
	delete(s.cancels, id)
}

// cancelRequest handles $/cancelRequest. The id is decoded here because
// protocol.IntegerOrString cannot be unmarshalled into.
func (s *Server) cancelRequest(raw json.RawMessage) {
	var params struct {
		ID jsonrpc2.ID `json:"id"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		log.Debugf("Malformed cancellation: %v", err)
		return
	}

	s.requestsMu.Lock()
	cancel, ok := s.cancels[params.ID]
	s.requestsMu.Unlock()
	if ok {
		log.Debugf("Cancelling request %s", params.ID)
		cancel()
	}
}

type rpcLogger struct {
	log commonlog.Logger
}

// jsonrpc2.Logger interface
func (l *rpcLogger) Printf(format string, v ...any) {
	l.log.Debugf(strings.TrimSuffix(format, "\n"), v...)
}

type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdrwc) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
