package device

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profilerJSON = `{
  "SPAudioDataType": [
    {
      "_items": [
        {"_name": "MacBook Pro Speakers", "coreaudio_device_transport": "coreaudio_device_type_builtin"},
        {"_name": "Jane's AirPods", "coreaudio_device_transport": "bluetooth",
         "coreaudio_default_audio_output_device": "spaudio_yes", "coreaudio_device_is_alive": "yes"},
        {"_name": "USB DAC", "device_is_connected": false},
        {"name": ""}
      ]
    }
  ]
}`

func TestParseProfiler(t *testing.T) {
	records, err := ParseProfiler([]byte(profilerJSON))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, Record{Name: "MacBook Pro Speakers", Transport: "coreaudio_device_type_builtin", Connected: true}, records[0])
	assert.True(t, records[1].DefaultOutput)
	assert.True(t, records[1].Connected)
	assert.False(t, records[2].Connected)

	_, err = ParseProfiler([]byte("not json"))
	assert.Error(t, err)
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		name, transport string
		want            Type
	}{
		{"Anything", "Bluetooth", TypeBluetooth},
		{"Anything", "usb audio", TypeUSB},
		{"LG Monitor", "DisplayPort", TypeHDMI},
		{"Jane's AirPods Pro", "", TypeBluetooth},
		{"MacBook Air Speakers", "", TypeBuiltIn},
		{"Focusrite audio interface", "", TypeUSB},
		{"External Headphones", "", TypeHeadphones},
		{"Mystery", "", TypeUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectType(tt.name, tt.transport), tt.name)
	}
	assert.True(t, TypeHeadphones.External())
	assert.False(t, TypeBuiltIn.External())
	assert.False(t, TypeUnknown.External())
}

func TestCurrentPrefersConnectedDefault(t *testing.T) {
	records := []Record{
		{Name: "Speakers", Connected: true},
		{Name: "Old Default", DefaultOutput: true},
		{Name: "AirPods", DefaultOutput: true, Connected: true},
	}
	assert.Equal(t, "AirPods", Current(records).Name)
	assert.Equal(t, "Speakers", Current(records[:2]).Name)
	assert.Nil(t, Current(nil))
}

func TestRegistryName(t *testing.T) {
	assert.Equal(t, "Built-in Output", registryName(`  "IOAudioEngineDescription" = "Built-in Output"`))
	assert.Equal(t, "Unknown", registryName("garbage"))
}

func noFallback() *Device { return nil }

func TestTrackerExternalToBuiltIn(t *testing.T) {
	var tr tracker
	tr.reset(&Device{Name: "AirPods", Type: TypeBluetooth})

	speakers := &Device{Name: "Speakers", Type: TypeBuiltIn}
	records := []Record{{Name: "Speakers", Connected: true}}
	assert.True(t, tr.observe(speakers, records, noFallback))
	assert.False(t, tr.observe(speakers, records, noFallback), "fires once")
}

func TestTrackerBuiltInStaysQuiet(t *testing.T) {
	var tr tracker
	speakers := &Device{Name: "Speakers", Type: TypeBuiltIn}
	tr.reset(speakers)
	assert.False(t, tr.observe(speakers, nil, noFallback))
	assert.False(t, tr.observe(nil, nil, noFallback))
}

func TestTrackerVanishedExternalUsesFallback(t *testing.T) {
	var tr tracker
	airpods := &Device{Name: "AirPods", Type: TypeBluetooth}
	tr.reset(airpods)

	// profiler still names the airpods as default but no longer lists them connected
	records := []Record{{Name: "Speakers", Connected: true}}
	usb := &Device{Name: "USB DAC", Type: TypeUSB}
	assert.True(t, tr.observe(airpods, records, func() *Device { return usb }))
	assert.Same(t, usb, tr.last)
	assert.True(t, tr.external)
}

func TestTrackerExternalStillConnected(t *testing.T) {
	var tr tracker
	airpods := &Device{Name: "AirPods", Type: TypeBluetooth}
	tr.reset(airpods)
	records := []Record{{Name: "Jane's AirPods", Transport: "bluetooth", Connected: true}}
	assert.False(t, tr.observe(airpods, records, noFallback))
}

type scriptedProbe struct {
	mu    sync.Mutex
	steps [][]Record
}

func (p *scriptedProbe) Records(context.Context) ([]Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.steps) > 1 {
		step := p.steps[0]
		p.steps = p.steps[1:]
		return step, nil
	}
	return p.steps[0], nil
}

func (p *scriptedProbe) Fallback(context.Context) *Device { return nil }

func TestMonitorRunCallsOnDisconnect(t *testing.T) {
	probe := &scriptedProbe{steps: [][]Record{
		{{Name: "AirPods", Transport: "bluetooth", DefaultOutput: true, Connected: true}},
		{{Name: "Speakers", Transport: "built-in", DefaultOutput: true, Connected: true}},
	}}

	paused := make(chan struct{}, 1)
	m := NewMonitor(probe, 5*time.Millisecond, func() { paused <- struct{}{} }, zerolog.Nop())
	require.True(t, m.Supported())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	select {
	case <-paused:
	case <-time.After(time.Second):
		t.Fatal("onDisconnect was not called")
	}
	cancel()
	assert.NoError(t, <-done)
}

func TestMonitorWithoutProbe(t *testing.T) {
	m := &Monitor{log: zerolog.Nop()}
	assert.False(t, m.Supported())
	assert.NoError(t, m.Run(context.Background()))
	assert.Nil(t, m.CurrentDevice(context.Background()))
}
