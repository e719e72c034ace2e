package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/denisblondeau/AzureWebPubSubDemo-Publisher/internal/auth"
	"github.com/denisblondeau/AzureWebPubSubDemo-Publisher/internal/common/cnst"
	"github.com/denisblondeau/AzureWebPubSubDemo-Publisher/internal/common/config"
	"github.com/denisblondeau/AzureWebPubSubDemo-Publisher/internal/protocol"
)

var (
	ErrInvalidHubURL    = errors.New("invalid hub URL")
	ErrAlreadyConnected = errors.New("session is already connected")
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Outbound requests buffered between callers and the write pump.
	outboundBuffer = 256
)

// Session owns the single active socket to the hub, drives the receive
// loop and reports lifecycle events and received payloads through the
// transcript observer. One session per process; the socket handle is
// never shared.
type Session struct {
	logger     *zap.Logger
	cfg        config.PubSubConfig
	issuer     *auth.Service
	permission auth.Permission
	transcript *transcript

	id     string
	hubURL string

	mu       sync.Mutex
	conn     *websocket.Conn
	open     bool
	ackID    int64
	outbound chan outboundRequest

	wg        sync.WaitGroup
	closeOnce sync.Once
}

type outboundRequest struct {
	label   string
	payload []byte
}

// New creates a closed session. Connect must be called to open it.
func New(logger *zap.Logger, cfg config.PubSubConfig, issuer *auth.Service, observer Observer) *Session {
	permission := auth.SendToGroup(cfg.Permission.Group)
	if cfg.Permission.Kind == config.PermissionJoinLeaveGroup {
		permission = auth.JoinLeaveGroup(cfg.Permission.Group)
	}

	id := uuid.NewString()
	return &Session{
		logger:     logger.Named("session").With(zap.String("session_id", id)),
		cfg:        cfg,
		issuer:     issuer,
		permission: permission,
		transcript: newTranscript(observer),
		id:         id,
		hubURL:     cfg.HubURL(),
	}
}

// IsOpen reports whether the socket is currently open.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Connect issues a fresh access token and opens the socket. On failure
// the session stays closed; there is no automatic retry.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.open {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.mu.Unlock()

	u, err := url.Parse(s.hubURL)
	if err != nil || (u.Scheme != "wss" && u.Scheme != "ws") || u.Host == "" {
		s.transcript.activity("Invalid hub URL")
		s.logger.Error("invalid hub URL", zap.String("url", s.hubURL))
		return ErrInvalidHubURL
	}

	token, err := s.issuer.Issue(s.hubURL, s.permission)
	if err != nil {
		s.transcript.activity("Cannot generate signed token")
		s.logger.Error("cannot generate signed token", zap.Error(err))
		return err
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Authorization", "Bearer "+token)

	dialer := websocket.Dialer{
		Proxy:        http.ProxyFromEnvironment,
		Subprotocols: []string{cnst.SubprotocolJSON.String()},
	}
	conn, _, err := dialer.DialContext(ctx, s.hubURL, header)
	if err != nil {
		s.transcript.activity(fmt.Sprintf("Failed to connect: %v", err))
		s.logger.Error("failed to connect", zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.open = true
	s.outbound = make(chan outboundRequest, outboundBuffer)
	outbound := s.outbound
	s.mu.Unlock()

	s.transcript.activity("Web socket is open")
	s.logger.Info("web socket is open",
		zap.String("hub", s.cfg.Hub),
		zap.String("subprotocol", conn.Subprotocol()))

	s.wg.Add(2)
	go s.writePump(conn, outbound)
	go s.receivePump(conn)

	return nil
}

// SendMessage publishes text to the configured group with ack tracking.
// It is a safe no-op when the session is closed and never blocks on the
// socket: the write outcome is reported to the activity transcript.
func (s *Session) SendMessage(text string) {
	req := protocol.NewSendToGroup(s.cfg.Group, s.nextAckID(), false, protocol.TextData(text))
	s.enqueue("'send to group' request", req)
}

// JoinGroup asks the service to add this connection to the configured
// group. Requires the joinLeaveGroup role.
func (s *Session) JoinGroup() {
	s.enqueue("'join group' request", protocol.NewJoinGroup(s.cfg.Group, s.nextAckID()))
}

// LeaveGroup asks the service to remove this connection from the
// configured group.
func (s *Session) LeaveGroup() {
	s.enqueue("'leave group' request", protocol.NewLeaveGroup(s.cfg.Group, s.nextAckID()))
}

// nextAckID allocates the next acknowledgement id. The counter starts at
// 1 and never resets or wraps within the session's lifetime.
func (s *Session) nextAckID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ackID++
	return s.ackID
}

func (s *Session) enqueue(label string, req protocol.Request) {
	payload, err := protocol.Encode(req)
	if err != nil {
		s.transcript.activity(fmt.Sprintf("Failed encoding %s: %v", label, err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open || s.outbound == nil {
		s.logger.Debug("dropping request on closed session", zap.String("request", label))
		return
	}
	select {
	case s.outbound <- outboundRequest{label: label, payload: payload}:
	default:
		s.transcript.activity(fmt.Sprintf("Failed sending %s: outbound queue is full", label))
	}
}

// writePump owns all writes to the socket. Write failures are reported to
// the activity transcript only; they neither close the session nor gate
// subsequent sends.
func (s *Session) writePump(conn *websocket.Conn, outbound <-chan outboundRequest) {
	defer s.wg.Done()
	for req := range outbound {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, req.payload); err != nil {
			s.transcript.activity(fmt.Sprintf("Failed sending %s: %v", req.label, err))
			s.logger.Warn("write failed", zap.String("request", req.label), zap.Error(err))
			continue
		}
		s.transcript.activity(fmt.Sprintf("Successfully sent %s", req.label))
	}
}

// receivePump processes inbound frames strictly in arrival order until
// the socket closes or errors. A read error terminates the loop; frames
// delivered afterwards are never processed and recovery requires a full
// reconnect.
func (s *Session) receivePump(conn *websocket.Conn) {
	defer s.wg.Done()
	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if s.markClosed() {
				var closeErr *websocket.CloseError
				if errors.As(err, &closeErr) {
					s.transcript.activity("Web socket closed")
				} else {
					s.transcript.activity(fmt.Sprintf("Error receiving message: %v", err))
				}
				s.logger.Info("receive loop stopped", zap.Error(err))
			}
			return
		}
		s.dispatch(msgType, payload)
	}
}

// dispatch routes one inbound frame to the transcripts.
func (s *Session) dispatch(msgType int, payload []byte) {
	if msgType == websocket.BinaryMessage {
		s.transcript.message(fmt.Sprintf("%d bytes", len(payload)))
		return
	}

	switch frame := protocol.Decode(payload).(type) {
	case protocol.Ack:
		// Successful acks are consumed silently. Failures surface on the
		// received-messages transcript for the operator to read.
		if !frame.Success && frame.Error != nil {
			s.transcript.message(fmt.Sprintf("Error: %s -> Message: %s", frame.Error.Name, frame.Error.Message))
		}
	case protocol.Message:
		s.transcript.message(frame.Data)
	case protocol.Unrecognized:
		if utf8.Valid(frame.Raw) {
			s.transcript.message(string(frame.Raw))
		} else {
			s.transcript.message("Unknown data received")
		}
	}
}

// markClosed flips the session to closed and releases the socket. It
// reports whether this call performed the transition.
func (s *Session) markClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return false
	}
	s.open = false
	if s.outbound != nil {
		close(s.outbound)
		s.outbound = nil
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	return true
}

// Close tears the session down exactly once. When the socket is open a
// going-away close frame is sent before the handle is released. Calling
// SendMessage afterwards is a safe no-op.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		conn := s.conn
		wasOpen := s.open
		s.open = false
		if s.outbound != nil {
			close(s.outbound)
			s.outbound = nil
		}
		s.conn = nil
		s.mu.Unlock()

		if wasOpen && conn != nil {
			deadline := time.Now().Add(writeWait)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), deadline)
			_ = conn.Close()
		}

		s.wg.Wait()
		if wasOpen {
			s.transcript.activity("Web socket closed")
		}
		s.transcript.close()
		s.logger.Info("session closed")
	})
}
