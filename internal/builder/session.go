// Package builder implements the session state (spec C6) that a test
// runner drives through string keywords (§6): a stack machine that
// routes add_field calls to the protocol-in-progress or the innermost
// open container, and the named registries (spec.md §9 "re-architect as
// explicit maps owned by the session object") of protocols, message
// templates, clients, and servers.
package builder

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kvemir/rammbock/internal/container"
	"github.com/kvemir/rammbock/internal/env"
	"github.com/kvemir/rammbock/internal/field"
	"github.com/kvemir/rammbock/internal/message"
	"github.com/kvemir/rammbock/internal/protocol"
	"github.com/kvemir/rammbock/internal/rammerrors"
	"github.com/kvemir/rammbock/internal/registry"
	"github.com/kvemir/rammbock/internal/transport"
)

// Session owns every piece of mutable, long-lived state a test run
// needs: the protocol currently being defined, the stack of containers
// open inside the message currently being defined, the pending
// field-value environment, and the named registries of everything the
// session has built or opened. A Session is owned by one goroutine at a
// time, per spec.md §5.
type Session struct {
	logger *zap.SugaredLogger

	protocols *registry.Cache[*protocol.Protocol]
	messages  *registry.Cache[*message.Template]
	clients   *registry.Cache[*transport.Client]
	servers   *registry.Cache[*transport.Server]

	protocolInProgress *protocol.Protocol
	lastProtocolName   string

	stack         []frame
	pendingValues *env.Values
	pendingHeader *env.Values
}

// New returns an empty Session backed by bounded registries of the given
// size (registry.DefaultSize is used when size <= 0).
func New(logger *zap.SugaredLogger, size int) *Session {
	protocols, _ := registry.New[*protocol.Protocol]("protocol", size)
	messages, _ := registry.New[*message.Template]("message", size)
	clients, _ := registry.New[*transport.Client]("client", size)
	servers, _ := registry.New[*transport.Server]("server", size)
	return &Session{
		logger:    logger,
		protocols: protocols,
		messages:  messages,
		clients:   clients,
		servers:   servers,
	}
}

// Protocols, Messages, Clients, Servers expose the session's named
// registries to callers that need to look up a previously defined or
// opened handle directly (e.g. a keyword that names a client by alias).
func (s *Session) Protocols() *registry.Cache[*protocol.Protocol] { return s.protocols }
func (s *Session) Messages() *registry.Cache[*message.Template]  { return s.messages }
func (s *Session) Clients() *registry.Cache[*transport.Client]   { return s.clients }
func (s *Session) Servers() *registry.Cache[*transport.Server]   { return s.servers }

// Logger returns the session's logger, for callers (e.g. cmd/rammbock)
// that open transport clients/servers outside of the builder stack
// machine itself.
func (s *Session) Logger() *zap.SugaredLogger { return s.logger }

// RegisterServer puts an already-opened transport.Server under alias in
// the session's server registry, so Reset/ResetStreams reach it.
func (s *Session) RegisterServer(alias string, srv *transport.Server) {
	s.servers.Put(alias, srv)
}

// RegisterClient puts an already-opened transport.Client under alias in
// the session's client registry, so Reset/ResetStreams reach it.
func (s *Session) RegisterClient(alias string, c *transport.Client) {
	s.clients.Put(alias, c)
}

// StartProtocol opens a new Protocol definition named name.
func (s *Session) StartProtocol(name string) error {
	if s.protocolInProgress != nil {
		return fmt.Errorf("builder: start_protocol %q: %w", name, rammerrors.ErrProtocolInProgress)
	}
	if err := s.protocols.RequireAbsent(name, rammerrors.ErrDuplicateProtocol); err != nil {
		return err
	}
	s.protocolInProgress = protocol.New(name)
	return nil
}

// EndProtocol commits the in-progress Protocol to the registry and
// makes it immutable.
func (s *Session) EndProtocol() error {
	if s.protocolInProgress == nil {
		return fmt.Errorf("builder: end_protocol: %w", rammerrors.ErrUnbalancedContainers)
	}
	s.protocolInProgress.Close()
	s.protocols.Put(s.protocolInProgress.Name(), s.protocolInProgress)
	s.lastProtocolName = s.protocolInProgress.Name()
	s.protocolInProgress = nil
	return nil
}

// NewMessage resets the message stack to a single, empty MessageTemplate
// bound to protocolName (or the most recently ended protocol, when
// protocolName is empty), and clears the pending field-value
// environment.
func (s *Session) NewMessage(name, protocolName string, headerOverrides map[string]string) error {
	if s.protocolInProgress != nil {
		return fmt.Errorf("builder: new_message %q: %w", name, rammerrors.ErrProtocolInProgress)
	}
	if protocolName == "" {
		protocolName = s.lastProtocolName
	}
	proto, ok := s.protocols.Get(protocolName)
	if !ok {
		return fmt.Errorf("builder: new_message %q: protocol %q not found", name, protocolName)
	}
	headerDef := env.New()
	for k, v := range headerOverrides {
		if err := headerDef.Set(k, v); err != nil {
			return fmt.Errorf("builder: new_message %q: %w", name, err)
		}
	}
	tmpl := message.New(name, proto, headerDef)
	s.stack = []frame{&templateFrame{t: tmpl}}
	s.pendingValues = env.New()
	s.pendingHeader = env.New()
	return nil
}

func (s *Session) top() (frame, error) {
	if len(s.stack) == 0 {
		return nil, fmt.Errorf("builder: no message in progress: %w", rammerrors.ErrUnbalancedContainers)
	}
	return s.stack[len(s.stack)-1], nil
}

// AddField routes f to the protocol-in-progress, if one is open, else
// to the innermost open container of the message in progress.
func (s *Session) AddField(f field.Field) error {
	if s.protocolInProgress != nil {
		return s.protocolInProgress.Add(f)
	}
	top, err := s.top()
	if err != nil {
		return err
	}
	return top.addField(f)
}

// AddBitField adds a bit-packed sub-field to the innermost open
// BinaryContainer; it is an error when the top of the stack is not one.
func (s *Session) AddBitField(name string, bitWidth int, def *uint64) error {
	top, err := s.top()
	if err != nil {
		return err
	}
	bf, ok := top.(*binaryFrame)
	if !ok {
		return fmt.Errorf("builder: add_bit_field %q: top of stack is %q, not binary_container: %w", name, top.kindName(), rammerrors.ErrUnbalancedContainers)
	}
	bf.b.Add(name, bitWidth, def)
	return nil
}

// OpenStruct pushes a new Struct frame. declaredLength <= 0 means "no
// explicit length".
func (s *Session) OpenStruct(name string, declaredLength int) error {
	if _, err := s.top(); err != nil {
		return err
	}
	s.stack = append(s.stack, &structFrame{s: container.NewStruct(name, declaredLength)})
	return nil
}

// OpenList pushes a new List frame; sizeExpr follows the Length grammar.
func (s *Session) OpenList(name, sizeExpr string) error {
	if _, err := s.top(); err != nil {
		return err
	}
	s.stack = append(s.stack, &listFrame{name: name, sizeExpr: sizeExpr})
	return nil
}

// OpenUnion pushes a new Union frame.
func (s *Session) OpenUnion(name string) error {
	if _, err := s.top(); err != nil {
		return err
	}
	s.stack = append(s.stack, &unionFrame{u: container.NewUnion(name)})
	return nil
}

// OpenBinaryContainer pushes a new BinaryContainer frame of
// declaredLength bytes.
func (s *Session) OpenBinaryContainer(name string, declaredLength int) error {
	if _, err := s.top(); err != nil {
		return err
	}
	s.stack = append(s.stack, &binaryFrame{b: container.NewBinaryContainer(name, declaredLength)})
	return nil
}

// closeAs pops the stack top, requiring it to be of kind wantKind, folds
// it into a Field, and adds it to the new top of the message stack.
// Containers are never added to the protocol in progress.
func (s *Session) closeAs(wantKind string) error {
	if len(s.stack) < 2 {
		return fmt.Errorf("builder: close_%s: %w", wantKind, rammerrors.ErrUnbalancedContainers)
	}
	top := s.stack[len(s.stack)-1]
	if top.kindName() != wantKind {
		return fmt.Errorf("builder: close_%s: top of stack is %q: %w", wantKind, top.kindName(), rammerrors.ErrUnbalancedContainers)
	}
	closed, err := top.close()
	if err != nil {
		return err
	}
	s.stack = s.stack[:len(s.stack)-1]
	newTop := s.stack[len(s.stack)-1]
	return newTop.addField(closed)
}

func (s *Session) CloseStruct() error          { return s.closeAs("struct") }
func (s *Session) CloseList() error            { return s.closeAs("list") }
func (s *Session) CloseUnion() error           { return s.closeAs("union") }
func (s *Session) CloseBinaryContainer() error { return s.closeAs("binary_container") }

// Value records an override for the payload field-value environment at
// the given dotted/indexed path.
func (s *Session) Value(path, v string) error {
	if s.pendingValues == nil {
		return fmt.Errorf("builder: value %q: %w", path, rammerrors.ErrUnbalancedContainers)
	}
	return s.pendingValues.Set(path, v)
}

// HeaderValue records an override for the header field-value
// environment, for the special "header:<name>:<value>" keyword form.
func (s *Session) HeaderValue(name, v string) error {
	if s.pendingHeader == nil {
		return fmt.Errorf("builder: header_value %q: %w", name, rammerrors.ErrUnbalancedContainers)
	}
	return s.pendingHeader.Set(name, v)
}

// Encode requires the container stack to be exactly one deep (only the
// base message template frame), snapshots and clears the pending
// environments, and encodes the message in progress.
func (s *Session) Encode() (*message.Message, error) {
	if len(s.stack) != 1 {
		return nil, fmt.Errorf("builder: encode: stack depth %d: %w", len(s.stack), rammerrors.ErrUnbalancedContainers)
	}
	base := s.stack[0].(*templateFrame)
	values, header := s.pendingValues, s.pendingHeader
	s.pendingValues, s.pendingHeader = env.New(), env.New()
	msg, err := base.t.Encode(values, header)
	if err != nil {
		return nil, err
	}
	s.messages.Put(base.t.Name(), base.t)
	s.logger.Debugw("encoded message", "message", msg.Repr())
	return msg, nil
}

// Template returns the MessageTemplate currently in progress, for
// callers that need to decode a received buffer against it before a
// matching Session.Encode has run (e.g. a pure receive-and-validate
// keyword sequence).
func (s *Session) Template() (*message.Template, error) {
	if len(s.stack) == 0 {
		return nil, fmt.Errorf("builder: no message in progress: %w", rammerrors.ErrUnbalancedContainers)
	}
	base, ok := s.stack[0].(*templateFrame)
	if !ok {
		return nil, fmt.Errorf("builder: base stack frame is not a message template: %w", rammerrors.ErrUnbalancedContainers)
	}
	return base.t, nil
}

// Received logs the receipt of msg the way Rammbock._receive echoes a
// *DEBUG* line, per SPEC_FULL.md §4 item 6.
func (s *Session) Received(msg *message.Message) {
	s.logger.Debugw("received message", "message", msg.Repr())
}

// Reset closes every registered client and server and purges every
// registry, per SPEC_FULL.md §4 item 1 (reset_rammbock). It also drops
// the definition-in-progress state: the open protocol, the message
// stack, and the pending field-value environments.
func (s *Session) Reset() error {
	for _, alias := range s.clients.Keys() {
		if c, ok := s.clients.Get(alias); ok {
			c.Close()
		}
	}
	for _, alias := range s.servers.Keys() {
		if srv, ok := s.servers.Get(alias); ok {
			srv.Close()
		}
	}
	s.clients.Purge()
	s.servers.Purge()
	s.protocols.Purge()
	s.messages.Purge()
	s.protocolInProgress = nil
	s.lastProtocolName = ""
	s.stack = nil
	s.pendingValues = nil
	s.pendingHeader = nil
	return nil
}

// ResetStreams empties every registered client's and server's receive
// buffers, per SPEC_FULL.md §4 item 1 (reset_message_streams).
func (s *Session) ResetStreams() {
	for _, alias := range s.clients.Keys() {
		if c, ok := s.clients.Get(alias); ok {
			c.ResetStream()
		}
	}
	for _, alias := range s.servers.Keys() {
		if srv, ok := s.servers.Get(alias); ok {
			srv.ResetStreams()
		}
	}
}
