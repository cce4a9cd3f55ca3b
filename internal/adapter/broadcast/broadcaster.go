package broadcast

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ejulen/very-fancy-chat/internal/adapter/metrics"
	"github.com/ejulen/very-fancy-chat/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

const (
	commandTimeout    = 5 * time.Second
	stopTimeout       = 10 * time.Second
	commandBufferSize = 256
	depthWarnLevel    = 200 // ~80% of commandBufferSize
)

type subscribers map[*websocket.Conn]*clientWriter

// broadcasterCmd is the command interface for the Broadcaster actor.
type broadcasterCmd interface{ isBroadcasterCmd() }

type baseBroadcasterCmd struct{}

func (baseBroadcasterCmd) isBroadcasterCmd() {}

type registerCmd struct {
	baseBroadcasterCmd
	connection   *websocket.Conn
	errorChannel chan error
}

type unregisterCmd struct {
	baseBroadcasterCmd
	connection *websocket.Conn
}

type broadcastCmd struct {
	baseBroadcasterCmd
	fragment []byte
}

type countCmd struct {
	baseBroadcasterCmd
	replyChannel chan int
}

type stopCmd struct {
	baseBroadcasterCmd
}

// Broadcaster is the process-wide subscriber registry and fan-out dispatcher.
type Broadcaster struct {
	cmdCh          chan broadcasterCmd
	clock          clockwork.Clock
	subscribers    subscribers
	maxSubscribers int
	metrics        *metrics.WebSocketMetrics
	done           chan struct{}
	stopTimeout    time.Duration
}

// NewBroadcaster creates a broadcaster and starts its actor goroutine.
// maxSubscribers caps concurrent subscribers (prevents resource exhaustion).
func NewBroadcaster(clock clockwork.Clock, maxSubscribers int, wsMetrics *metrics.WebSocketMetrics) *Broadcaster {
	b := &Broadcaster{
		cmdCh:          make(chan broadcasterCmd, commandBufferSize),
		clock:          clock,
		subscribers:    make(subscribers),
		maxSubscribers: maxSubscribers,
		metrics:        wsMetrics,
		done:           make(chan struct{}),
		stopTimeout:    stopTimeout,
	}
	go b.run()
	return b
}

// Register adds an upgraded connection as a subscriber.
// On error the connection has already been closed.
func (b *Broadcaster) Register(conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	if err := b.send(registerCmd{connection: conn, errorChannel: errCh}); err != nil {
		_ = conn.Close()
		return err
	}

	timer := b.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-b.done:
		_ = conn.Close()
		return domain.ErrRegistryStopped
	case <-timer.Chan():
		// The actor may still register conn later; the queued unregister removes it.
		_ = conn.Close()
		b.Unregister(conn)
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a subscriber. Unknown connections are ignored.
func (b *Broadcaster) Unregister(conn *websocket.Conn) {
	if err := b.send(unregisterCmd{connection: conn}); err != nil {
		slog.Debug("Unregister after broadcaster stop", "remote_addr", conn.RemoteAddr().String())
	}
}

// Broadcast queues fragment for every current subscriber and returns
// immediately. Delivery is best effort.
func (b *Broadcaster) Broadcast(fragment []byte) {
	if err := b.send(broadcastCmd{fragment: fragment}); err != nil {
		slog.Warn("Dropping broadcast", "error", err, "bytes", len(fragment))
	}
}

// SubscriberCount returns the number of registered subscribers.
// Returns -1 if the command times out or the broadcaster stopped.
func (b *Broadcaster) SubscriberCount() int {
	replyCh := make(chan int, 1)
	if err := b.send(countCmd{replyChannel: replyCh}); err != nil {
		return -1
	}

	timer := b.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("SubscriberCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts down the broadcaster, closing all subscriber connections with a
// close frame. Blocks until the actor exited or the stop timeout elapsed.
func (b *Broadcaster) Stop() {
	if err := b.send(stopCmd{}); err != nil {
		return
	}

	timeout := b.clock.NewTimer(b.stopTimeout)
	defer timeout.Stop()

	select {
	case <-b.done:
		slog.Info("Broadcaster stopped gracefully")
	case <-timeout.Chan():
		slog.Warn("Broadcaster stop timeout exceeded", "timeout", b.stopTimeout)
	}
}

func (b *Broadcaster) send(cmd broadcasterCmd) error {
	select {
	case <-b.done:
		return domain.ErrRegistryStopped
	default:
	}

	timer := b.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case b.cmdCh <- cmd:
		return nil
	case <-b.done:
		return domain.ErrRegistryStopped
	case <-timer.Chan():
		return fmt.Errorf("broadcaster command channel full after %v", commandTimeout)
	}
}

func (b *Broadcaster) run() {
	defer close(b.done)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Broadcaster panic recovered", "panic", r)
			b.metrics.BroadcasterPanics.Inc()
			b.closeAll("broadcaster panic")
		}
	}()

	depthTicker := b.clock.NewTicker(time.Second)
	defer depthTicker.Stop()

	for {
		select {
		case <-depthTicker.Chan():
			depth := len(b.cmdCh)
			b.metrics.CommandChannelDepth.Set(float64(depth))
			if depth > depthWarnLevel {
				slog.Warn("Command channel near capacity", "depth", depth, "capacity", cap(b.cmdCh))
			}

		case cmd := <-b.cmdCh:
			switch c := cmd.(type) {
			case registerCmd:
				b.handleRegister(c)
			case unregisterCmd:
				b.handleUnregister(c.connection)
			case broadcastCmd:
				b.handleBroadcast(c.fragment)
			case countCmd:
				c.replyChannel <- len(b.subscribers)
			case stopCmd:
				b.handleStop()
				return
			default:
				slog.Warn("Broadcaster received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
			}
		}
	}
}

func (b *Broadcaster) handleRegister(c registerCmd) {
	if len(b.subscribers) >= b.maxSubscribers {
		slog.Warn("Rejecting subscriber: registry full", "max_subscribers", b.maxSubscribers)
		b.metrics.RejectedConnections.WithLabelValues("registry_full").Inc()
		_ = c.connection.Close()
		c.errorChannel <- fmt.Errorf("%w: max subscribers (%d) reached", domain.ErrRegistryFull, b.maxSubscribers)
		return
	}

	b.subscribers[c.connection] = newClientWriter(c.connection, b.clock, b.metrics)
	b.metrics.ActiveConnections.Set(float64(len(b.subscribers)))

	slog.Debug("Subscriber registered", "remote_addr", c.connection.RemoteAddr().String(), "total_subscribers", len(b.subscribers))
	c.errorChannel <- nil
}

func (b *Broadcaster) handleUnregister(conn *websocket.Conn) {
	cw, exists := b.subscribers[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(b.subscribers, conn)
	b.metrics.ActiveConnections.Set(float64(len(b.subscribers)))

	slog.Debug("Subscriber unregistered", "remote_addr", conn.RemoteAddr().String(), "remaining_subscribers", len(b.subscribers))
}

func (b *Broadcaster) handleBroadcast(fragment []byte) {
	var slow []*websocket.Conn
	for conn, writer := range b.subscribers {
		select {
		case writer.sendChannel <- fragment:
		default:
			slow = append(slow, conn)
		}
	}
	b.metrics.FragmentsBroadcast.Inc()

	for _, conn := range slow {
		slog.Warn("Disconnecting slow subscriber", "remote_addr", conn.RemoteAddr().String())
		b.metrics.SlowClientsEvicted.Inc()
		b.handleUnregister(conn)
	}
}

func (b *Broadcaster) handleStop() {
	total := len(b.subscribers)
	slog.Info("Broadcaster shutting down", "subscribers", total)

	b.closeAll("Server shutting down")

	slog.Info("Broadcaster shutdown complete", "disconnected_subscribers", total)
}

func (b *Broadcaster) closeAll(reason string) {
	for conn, cw := range b.subscribers {
		cw.stopGraceful(reason)
		delete(b.subscribers, conn)
	}
	b.metrics.ActiveConnections.Set(0)
}
