package device

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog"
)

// Probe reports the outputs currently known to the system
type Probe interface {
	Records(ctx context.Context) ([]Record, error)
	// Fallback names the active output when Records cannot tell; nil when unknown
	Fallback(ctx context.Context) *Device
}

// tracker remembers the last output and decides when an external one went away
type tracker struct {
	last     *Device
	external bool
}

func (t *tracker) reset(d *Device) {
	t.last = d
	t.external = d != nil && d.Type.External()
}

// observe feeds one probe result and reports whether playback should pause
func (t *tracker) observe(current *Device, records []Record, fallback func() *Device) bool {
	if current == nil {
		return false
	}

	// external output replaced by a non-external one
	if t.external && !current.Type.External() {
		t.reset(current)
		return true
	}

	// the previous external output vanished from the connected list
	if t.last != nil && t.last.Type.External() && !stillConnected(t.last.Name, records) {
		next := current
		if sameDevice(next.Name, t.last.Name) {
			// the default still points at the vanished device; ask again
			next = fallback()
		}
		if next != nil && !sameDevice(next.Name, t.last.Name) {
			t.reset(next)
			return true
		}
	}

	t.reset(current)
	return false
}

func stillConnected(name string, records []Record) bool {
	for _, n := range connectedExternal(records) {
		if sameDevice(name, n) {
			return true
		}
	}
	return false
}

type Monitor struct {
	probe        Probe
	interval     time.Duration
	onDisconnect func()
	log          zerolog.Logger
	state        tracker
}

// NewMonitor builds a monitor calling onDisconnect when an external output disappears.
// A nil probe selects the system probe, which only exists on macOS.
func NewMonitor(probe Probe, interval time.Duration, onDisconnect func(), logger zerolog.Logger) *Monitor {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if probe == nil && runtime.GOOS == "darwin" {
		probe = systemProfiler{}
	}
	return &Monitor{
		probe:        probe,
		interval:     interval,
		onDisconnect: onDisconnect,
		log:          logger.With().Str("component", "device").Logger(),
	}
}

// Supported reports whether a probe is available on this platform
func (m *Monitor) Supported() bool {
	return m.probe != nil
}

// Run polls until ctx is done. It returns immediately on unsupported platforms.
func (m *Monitor) Run(ctx context.Context) error {
	if !m.Supported() {
		m.log.Info().Str("os", runtime.GOOS).Msg("audio output monitor disabled: unsupported platform")
		return nil
	}

	initial := m.current(ctx, m.records(ctx))
	m.state.reset(initial)
	if initial != nil {
		m.log.Info().Str("device", initial.Name).Stringer("type", initial.Type).Msg("initial audio output")
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.log.Debug().Msg("audio output monitor stopped")
			return nil
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check runs one poll and fires the callback when needed
func (m *Monitor) Check(ctx context.Context) {
	records := m.records(ctx)
	current := m.current(ctx, records)
	previous := m.state.last
	if !m.state.observe(current, records, func() *Device { return m.probe.Fallback(ctx) }) {
		return
	}

	ev := m.log.Info()
	if previous != nil {
		ev = ev.Str("from", previous.Name)
	}
	ev.Str("to", m.state.last.Name).Msg("external audio output disconnected")
	if m.onDisconnect != nil {
		m.onDisconnect()
	}
}

func (m *Monitor) records(ctx context.Context) []Record {
	records, err := m.probe.Records(ctx)
	if err != nil {
		m.log.Debug().Err(err).Msg("probe audio outputs")
	}
	return records
}

func (m *Monitor) current(ctx context.Context, records []Record) *Device {
	if d := Current(records); d != nil {
		return d
	}
	return m.probe.Fallback(ctx)
}

// CurrentDevice returns the active output, or nil when unknown
func (m *Monitor) CurrentDevice(ctx context.Context) *Device {
	if !m.Supported() {
		return nil
	}
	return m.current(ctx, m.records(ctx))
}
