package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/heroiclabs/nakama-common/rtapi"
	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/encoding/protojson"

	"recall/internal/ports"
)

// opCodeEvent is the single match opcode used for JSON event envelopes.
const opCodeEvent int64 = 1

var (
	// ErrNotConnected is returned when the socket is down.
	ErrNotConnected = errors.New("socket is not connected")
	// ErrNoMatch is returned when sending before a match was joined.
	ErrNoMatch = errors.New("no match joined")
)

// matchEvent is the JSON shape carried inside match data frames: the server
// and client exchange typed events with map payloads.
type matchEvent struct {
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
}

// Socket is a minimal Nakama realtime socket client. It decodes rtapi
// envelopes off the wire and surfaces match data as structured inbound
// events; the core never sees raw frames.
type Socket struct {
	logger    runtime.Logger
	socketURL string
	token     string
	events    chan ports.InboundEvent

	writeMu sync.Mutex

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	matchID   string
	closed    bool
}

// NewSocket creates a socket client for the given realtime endpoint, e.g.
// "ws://127.0.0.1:7350/ws".
func NewSocket(logger runtime.Logger, socketURL, token string) *Socket {
	return &Socket{
		logger:    logger,
		socketURL: socketURL,
		token:     token,
		events:    make(chan ports.InboundEvent, 128),
	}
}

// Connect dials the realtime endpoint and starts the read loop. A
// connection_status event is emitted on success.
func (s *Socket) Connect(ctx context.Context) error {
	dialURL := fmt.Sprintf("%s?token=%s&format=json", s.socketURL, url.QueryEscape(s.token))
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, dialURL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial socket: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return errors.New("socket is closed")
	}
	s.conn = conn
	s.connected = true
	s.mu.Unlock()

	s.emit(ports.InboundEvent{
		Type:    "connection_status",
		Payload: map[string]any{"connected": true},
	})
	go s.readLoop(conn)
	return nil
}

// IsConnected reports whether the socket is currently up.
func (s *Socket) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Events returns the inbound event stream. Closed when the connection ends.
func (s *Socket) Events() <-chan ports.InboundEvent {
	return s.events
}

// JoinMatch asks the server to join the given match. Subsequent Sends are
// addressed to it.
func (s *Socket) JoinMatch(ctx context.Context, matchID string) error {
	envelope := &rtapi.Envelope{
		Cid: uuid.NewString(),
		Message: &rtapi.Envelope_MatchJoin{
			MatchJoin: &rtapi.MatchJoin{
				Id: &rtapi.MatchJoin_MatchId{MatchId: matchID},
			},
		},
	}
	if err := s.write(ctx, envelope); err != nil {
		return err
	}
	s.mu.Lock()
	s.matchID = matchID
	s.mu.Unlock()
	return nil
}

// Send transmits a typed event with a map payload to the joined match.
func (s *Socket) Send(ctx context.Context, eventType string, payload map[string]any) error {
	s.mu.Lock()
	matchID := s.matchID
	s.mu.Unlock()
	if matchID == "" {
		return ErrNoMatch
	}

	data, err := json.Marshal(matchEvent{Event: eventType, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	envelope := &rtapi.Envelope{
		Cid: uuid.NewString(),
		Message: &rtapi.Envelope_MatchDataSend{
			MatchDataSend: &rtapi.MatchDataSend{
				MatchId: matchID,
				OpCode:  opCodeEvent,
				Data:    data,
			},
		},
	}
	return s.write(ctx, envelope)
}

// Close tears down the connection. The event channel closes once the read
// loop observes the disconnect.
func (s *Socket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	s.connected = false
	s.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	close(s.events)
	return nil
}

func (s *Socket) write(ctx context.Context, envelope *rtapi.Envelope) error {
	s.mu.Lock()
	conn := s.conn
	connected := s.connected
	s.mu.Unlock()
	if !connected || conn == nil {
		return ErrNotConnected
	}

	raw, err := protojson.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, raw)
}

func (s *Socket) readLoop(conn *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		s.connected = false
		alreadyClosed := s.closed
		s.closed = true
		s.mu.Unlock()
		if !alreadyClosed {
			conn.Close()
		}
		s.emit(ports.InboundEvent{
			Type:    "connection_status",
			Payload: map[string]any{"connected": false},
		})
		close(s.events)
	}()

	unmarshal := protojson.UnmarshalOptions{DiscardUnknown: true}
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			s.logger.Info("socket: read loop ended: %v", err)
			return
		}
		var envelope rtapi.Envelope
		if err := unmarshal.Unmarshal(raw, &envelope); err != nil {
			s.logger.Warn("socket: dropping undecodable envelope: %v", err)
			continue
		}
		switch msg := envelope.Message.(type) {
		case *rtapi.Envelope_MatchData:
			ev, err := decodeMatchData(msg.MatchData.Data)
			if err != nil {
				s.logger.Warn("socket: dropping malformed match data: %v", err)
				continue
			}
			s.emit(ev)
		case *rtapi.Envelope_Error:
			s.logger.Warn("socket: server error %d: %s", msg.Error.Code, msg.Error.Message)
		default:
			// Join acks and presence frames are not events the core consumes.
		}
	}
}

// decodeMatchData turns a match data frame into a structured inbound event.
func decodeMatchData(data []byte) (ports.InboundEvent, error) {
	var ev matchEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ports.InboundEvent{}, err
	}
	if ev.Event == "" {
		return ports.InboundEvent{}, errors.New("match data has no event type")
	}
	return ports.InboundEvent{Type: ev.Event, Payload: ev.Payload}, nil
}

func (s *Socket) emit(ev ports.InboundEvent) {
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("socket: dropping %s event, consumer too slow", ev.Type)
	}
}
