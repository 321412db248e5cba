package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"cryptotracker/internal/application/port"
	"cryptotracker/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	DefaultHeartbeat            = 30 * time.Second
	DefaultReconnectBase        = 3 * time.Second
	DefaultMaxReconnectAttempts = 10
	DefaultDialTimeout          = 10 * time.Second

	pingWriteTimeout = 5 * time.Second
)

// Options 连接参数；零值字段使用默认值
type Options struct {
	Name                 string
	URL                  string
	Heartbeat            time.Duration
	ReconnectBase        time.Duration
	MaxReconnectAttempts int
	DialTimeout          time.Duration
	Dialer               *websocket.Dialer
}

func (o *Options) applyDefaults() {
	if o.Name == "" {
		o.Name = "stream"
	}
	if o.Heartbeat <= 0 {
		o.Heartbeat = DefaultHeartbeat
	}
	if o.ReconnectBase <= 0 {
		o.ReconnectBase = DefaultReconnectBase
	}
	if o.MaxReconnectAttempts <= 0 {
		o.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	if o.Dialer == nil {
		d := *websocket.DefaultDialer
		d.HandshakeTimeout = o.DialTimeout
		o.Dialer = &d
	}
}

// Manager owns one logical streaming connection. It reports every status
// transition and inbound frame to its handler and reconnects with
// exponential backoff until Disconnect is called.
//
// Each connection runs under a generation number. Callbacks of a superseded
// generation are dropped, so nothing from an old socket or timer can leak
// into the handler after Disconnect or a reconnect. Handler calls are
// serialized; Disconnect waits for one in progress to return.
type Manager struct {
	opts    Options
	handler port.FeedHandler

	mu          sync.Mutex
	gen         uint64
	running     bool
	manualClose bool
	attempts    int
	timer       *time.Timer
	cancel      context.CancelFunc
	conn        *websocket.Conn

	emitMu sync.Mutex
	status domain.ConnStatus
}

func NewManager(opts Options, handler port.FeedHandler) *Manager {
	opts.applyDefaults()
	return &Manager{
		opts:    opts,
		handler: handler,
		status:  domain.StatusDisconnected,
	}
}

// Connect opens the stream. It is a no-op while a connection is open or
// being opened, and resets the reconnect attempt counter otherwise.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.manualClose = false
	m.attempts = 0
	m.stopTimerLocked()
	m.mu.Unlock()

	m.open()
}

// Disconnect closes the stream and cancels the heartbeat and any pending
// reconnect. Safe to call repeatedly.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.manualClose = true
	m.stopTimerLocked()
	m.gen++
	g := m.gen
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false
	m.mu.Unlock()

	log.Info().Str("feed", m.opts.Name).Msg("ws disconnect requested")
	m.emit(g, domain.StatusDisconnected)
}

// Status returns the last status reported to the handler.
func (m *Manager) Status() domain.ConnStatus {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()
	return m.status
}

func (m *Manager) open() {
	m.mu.Lock()
	if m.running || m.manualClose {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.gen++
	g := m.gen
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	attempt := m.attempts
	m.mu.Unlock()

	log.Info().Str("feed", m.opts.Name).Str("url", m.opts.URL).Int("attempt", attempt).Msg("ws connecting")
	m.emit(g, domain.StatusConnecting)
	go m.run(ctx, g)
}

func (m *Manager) run(ctx context.Context, g uint64) {
	dctx, dcancel := context.WithTimeout(ctx, m.opts.DialTimeout)
	conn, _, err := m.opts.Dialer.DialContext(dctx, m.opts.URL, nil)
	dcancel()
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error().Str("feed", m.opts.Name).Err(err).Msg("ws dial failed")
		m.emit(g, domain.StatusError)
		m.finish(g)
		return
	}

	m.mu.Lock()
	if g != m.gen {
		m.mu.Unlock()
		_ = conn.Close()
		return
	}
	m.conn = conn
	m.attempts = 0
	m.mu.Unlock()

	log.Info().Str("feed", m.opts.Name).Msg("ws connected")
	m.emit(g, domain.StatusConnected)

	err = m.readLoop(ctx, g, conn)
	_ = conn.Close()
	if ctx.Err() != nil {
		return
	}

	log.Warn().Str("feed", m.opts.Name).Err(err).Msg("ws disconnected")
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		m.emit(g, domain.StatusError)
	}
	m.emit(g, domain.StatusDisconnected)
	m.finish(g)
}

// finish 当前连接结束后调度重连
func (m *Manager) finish(g uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g != m.gen {
		return
	}
	m.running = false
	m.conn = nil
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.manualClose {
		return
	}
	if m.attempts >= m.opts.MaxReconnectAttempts {
		log.Warn().
			Str("feed", m.opts.Name).
			Int("attempts", m.attempts).
			Msg("ws max reconnect attempts reached, giving up")
		return
	}

	delay := m.opts.ReconnectBase << m.attempts
	m.attempts++
	log.Info().
		Str("feed", m.opts.Name).
		Int("attempt", m.attempts).
		Int64("delay_ms", delay.Milliseconds()).
		Msg("ws reconnect scheduled")
	m.timer = time.AfterFunc(delay, func() { m.reconnect(g) })
}

func (m *Manager) reconnect(g uint64) {
	m.mu.Lock()
	stale := g != m.gen || m.manualClose || m.running
	if !stale {
		m.timer = nil
	}
	m.mu.Unlock()
	if !stale {
		m.open()
	}
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) current(g uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return g == m.gen
}

// emit 上报状态变化，重复状态与过期连接的回调会被丢弃
func (m *Manager) emit(g uint64, status domain.ConnStatus) {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()
	if !m.current(g) || m.status == status {
		return
	}
	m.status = status
	if m.handler != nil {
		m.handler.OnStatus(status)
	}
}

func (m *Manager) readLoop(ctx context.Context, g uint64, conn *websocket.Conn) error {
	readTimeout := 2 * m.opts.Heartbeat
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	pingTicker := time.NewTicker(m.opts.Heartbeat)
	defer pingTicker.Stop()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			m.deliver(g, b)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			if err == nil {
				err = errors.New("read loop closed")
			}
			return err
		case <-pingTicker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(pingWriteTimeout)); err != nil {
				return err
			}
		}
	}
}

func (m *Manager) deliver(g uint64, b []byte) {
	if !json.Valid(b) {
		log.Debug().Str("feed", m.opts.Name).Int("bytes", len(b)).Msg("drop malformed frame")
		return
	}
	if m.handler == nil {
		return
	}
	// 与 emit 共用 emitMu：Disconnect 返回后不会再有旧连接的帧
	m.emitMu.Lock()
	defer m.emitMu.Unlock()
	if !m.current(g) {
		return
	}
	m.handler.OnMessage(json.RawMessage(b))
}
