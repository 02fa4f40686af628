// Package netstatus is the client-side reachability state machine: staged
// probing (API first, then a lighter static-asset check), sticky offline
// mode, and a self-throttling switch into offline mode after repeated
// failures instead of silent retries.
package netstatus

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"news-rag-chatbot/internal/logger"

	"github.com/go-co-op/gocron"
)

type State string

const (
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDegraded     State = "degraded"
	StateDisconnected State = "disconnected"
)

// Status is a snapshot of the machine. OfflineMode is sticky intent and
// overrides whatever probing would report.
type Status struct {
	State       State
	OfflineMode bool
	LastChecked time.Time
}

// ProbeFunc checks one reachability tier; nil means reachable.
type ProbeFunc func(ctx context.Context) error

type Config struct {
	// APIBaseURL is probed first (live features tier).
	APIBaseURL string
	// AssetURL is the lighter static-content tier; reachable here but not
	// at the API means degraded.
	AssetURL string
	// InitialDelay before the first fast probe.
	InitialDelay time.Duration
	// Interval between periodic probes.
	Interval time.Duration
	// MaxConsecutiveFailures of both tiers before auto-switching into
	// offline mode.
	MaxConsecutiveFailures int
	// OnAutoOffline surfaces the auto-offline decision to the user.
	OnAutoOffline func()
}

// Monitor runs the probe schedule and owns the connection state.
type Monitor struct {
	mu                  sync.Mutex
	state               State
	offlineMode         bool
	lastChecked         time.Time
	consecutiveFailures int

	apiProbe    ProbeFunc
	assetProbe  ProbeFunc
	maxFailures int
	onOffline   func()

	scheduler *gocron.Scheduler
	interval  time.Duration
	delay     time.Duration
}

func NewMonitor(cfg Config) *Monitor {
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 2 * time.Second
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = 3
	}

	return &Monitor{
		state:       StateConnecting,
		apiProbe:    httpProbe(cfg.APIBaseURL, 5*time.Second),
		assetProbe:  httpProbe(cfg.AssetURL, 8*time.Second),
		maxFailures: cfg.MaxConsecutiveFailures,
		onOffline:   cfg.OnAutoOffline,
		scheduler:   gocron.NewScheduler(time.UTC),
		interval:    cfg.Interval,
		delay:       cfg.InitialDelay,
	}
}

// Start schedules the initial fast probe and the periodic cadence.
func (m *Monitor) Start() error {
	if _, err := m.scheduler.Every(m.delay).LimitRunsTo(1).Tag("initial-probe").Do(m.probe); err != nil {
		return fmt.Errorf("failed to schedule initial probe: %w", err)
	}
	if _, err := m.scheduler.Every(m.interval).Tag("reachability-probe").Do(m.probe); err != nil {
		return fmt.Errorf("failed to schedule reachability probe: %w", err)
	}
	m.scheduler.StartAsync()
	return nil
}

// Stop cancels the probe schedule.
func (m *Monitor) Stop() {
	m.scheduler.Stop()
}

// Status returns the current snapshot.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{State: m.state, OfflineMode: m.offlineMode, LastChecked: m.lastChecked}
}

// SetOfflineMode toggles the sticky offline flag. Enabling it forces
// disconnected without probing; disabling it re-arms probing immediately.
func (m *Monitor) SetOfflineMode(offline bool) {
	m.mu.Lock()
	m.offlineMode = offline
	if offline {
		m.state = StateDisconnected
	} else {
		m.state = StateConnecting
		m.consecutiveFailures = 0
	}
	m.mu.Unlock()

	if !offline {
		go m.probe()
	}
}

// probe runs one staged reachability check.
func (m *Monitor) probe() {
	m.mu.Lock()
	if m.offlineMode {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	ctx := context.Background()

	if err := m.apiProbe(ctx); err == nil {
		m.record(StateConnected, true)
		return
	}

	if err := m.assetProbe(ctx); err == nil {
		// Content reachable, live features impaired.
		m.record(StateDegraded, true)
		return
	}

	m.record(StateDisconnected, false)
}

func (m *Monitor) record(state State, reachable bool) {
	var autoOffline bool

	m.mu.Lock()
	m.state = state
	m.lastChecked = time.Now()
	if reachable {
		m.consecutiveFailures = 0
	} else {
		m.consecutiveFailures++
		if m.consecutiveFailures > m.maxFailures {
			m.offlineMode = true
			autoOffline = true
		}
	}
	m.mu.Unlock()

	if autoOffline {
		logger.Warn("repeated reachability failures, switching to offline mode")
		if m.onOffline != nil {
			m.onOffline()
		}
	}
}

// httpProbe treats any response below 500 as reachable; the tier answered,
// even if it disliked the request.
func httpProbe(url string, timeout time.Duration) ProbeFunc {
	client := &http.Client{Timeout: timeout}
	return func(ctx context.Context) error {
		if url == "" {
			return fmt.Errorf("no probe url configured")
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("probe returned status %d", resp.StatusCode)
		}
		return nil
	}
}
