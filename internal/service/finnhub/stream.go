package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"FinBot/internal/domain/models"
	drepo "FinBot/internal/domain/repository"
	"FinBot/pkg/logger"

	"github.com/gorilla/websocket"
)

// Stream keeps the latest traded price per symbol from the Finnhub trade
// websocket. Change percent is measured against the first price seen since
// the stream started.
type Stream struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	first     map[string]float64
	last      map[string]float64
}

// ErrStreamDisconnected is reported by Health while the websocket is down.
var ErrStreamDisconnected = errors.New("finnhub stream not connected")

// NewStream creates a stream for symbols. Call Run to start it.
func NewStream(log *logger.Logger, apiKey, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration) *Stream {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Stream{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
		first:          make(map[string]float64),
		last:           make(map[string]float64),
	}
}

type fhTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type fhMessage struct {
	Type string    `json:"type"`
	Data []fhTrade `json:"data"`
}

func (s *Stream) connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", s.websocketURL, s.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("finnhub connect: %w", err)
	}
	for _, sym := range s.symbols {
		if err := conn.WriteJSON(map[string]string{"type": "subscribe", "symbol": sym}); err != nil {
			_ = conn.Close()
			return fmt.Errorf("subscribe %s: %w", sym, err)
		}
	}
	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()
	s.log.Info("finnhub stream connected", logger.Int("symbols", len(s.symbols)))
	return nil
}

// Run connects and reads until ctx is done, reconnecting after failures.
func (s *Stream) Run(ctx context.Context) {
	for {
		if err := s.connect(ctx); err != nil {
			s.log.Warn("finnhub stream connect failed", logger.Error(err))
		} else if err := s.read(ctx); err != nil && ctx.Err() == nil {
			s.log.Warn("finnhub stream dropped", logger.Error(err))
		}
		_ = s.Close()
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.reconnectDelay):
		}
	}
}

func (s *Stream) read(ctx context.Context) error {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-done:
				return
			case <-ticker.C:
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			}
		}
	}()

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("finnhub read: %w", err)
		}
		s.handle(b)
	}
}

// handle applies one frame; non-trade frames are ignored.
func (s *Stream) handle(b []byte) {
	var m fhMessage
	if err := json.Unmarshal(b, &m); err != nil || m.Type != "trade" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range m.Data {
		if d.P <= 0 {
			continue
		}
		if _, ok := s.first[d.S]; !ok {
			s.first[d.S] = d.P
		}
		s.last[d.S] = d.P
	}
}

// Quotes returns the symbols that have traded since the stream started.
func (s *Stream) Quotes(_ context.Context, symbols []string) ([]models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Quote, 0, len(symbols))
	for _, sym := range symbols {
		last, ok := s.last[sym]
		if !ok {
			continue
		}
		first := s.first[sym]
		out = append(out, models.Quote{
			Symbol:        sym,
			Price:         last,
			ChangePercent: (last - first) / first * 100,
		})
	}
	return out, nil
}

// Symbols lists the subscribed symbols.
func (s *Stream) Symbols(context.Context) ([]string, error) {
	return append([]string(nil), s.symbols...), nil
}

// Close closes the websocket connection.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Health fails while the websocket is down.
func (s *Stream) Health(context.Context) error {
	if !s.IsConnected() {
		return ErrStreamDisconnected
	}
	return nil
}

var (
	_ drepo.QuoteSource     = (*Stream)(nil)
	_ drepo.SymbolDirectory = (*Stream)(nil)
)
