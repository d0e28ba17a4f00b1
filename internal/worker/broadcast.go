package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/padmiss/cabd/internal/config"
	"github.com/padmiss/cabd/internal/websocket"
)

// Broadcaster announces the cabinet's reachable address. A false result
// means the announcement did not get through; it is never an error.
type Broadcaster interface {
	Broadcast(ctx context.Context) bool
}

// BroadcastWorker periodically announces this cabinet's address to the
// tournament service. The announcement is advisory: a failed cycle is
// logged and the loop keeps going.
type BroadcastWorker struct {
	api     Broadcaster
	hub     *websocket.Hub
	config  *config.BroadcastConfig
	addr    string
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewBroadcastWorker creates a new broadcast worker. The hub is
// optional; when set, every cycle's outcome is pushed to the overlay
// feed.
func NewBroadcastWorker(
	api Broadcaster,
	hub *websocket.Hub,
	cfg *config.BroadcastConfig,
	addr string,
	logger *slog.Logger,
) *BroadcastWorker {
	return &BroadcastWorker{
		api:    api,
		hub:    hub,
		config: cfg,
		addr:   addr,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins the background broadcast process
func (w *BroadcastWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("broadcast worker started", "interval", w.config.Interval, "addr", w.addr)

	go w.run(ctx)
	return nil
}

// Stop stops the background broadcast process
func (w *BroadcastWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("broadcast worker stopped")
	return nil
}

// run is the main worker loop
func (w *BroadcastWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	// Announce once immediately so the service learns about a freshly
	// booted cabinet without waiting a full interval.
	w.announce(ctx)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.announce(ctx)
		}
	}
}

// announce runs a single broadcast cycle
func (w *BroadcastWorker) announce(ctx context.Context) {
	online := w.api.Broadcast(ctx)
	if online {
		w.logger.Debug("broadcast cycle completed", "addr", w.addr)
	} else {
		w.logger.Info("broadcast cycle failed", "addr", w.addr)
	}

	if w.hub != nil {
		w.hub.BroadcastCabStatus(websocket.CabStatus{
			Online: online,
			Addr:   w.addr,
		})
	}
}

// IsRunning returns whether the worker is currently running
func (w *BroadcastWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce runs a single broadcast cycle (useful for manual triggers)
func (w *BroadcastWorker) RunOnce(ctx context.Context) {
	w.announce(ctx)
}
