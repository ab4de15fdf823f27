package device

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cast"
)

// Record is one output entry from system_profiler SPAudioDataType
type Record struct {
	Name          string
	Transport     string
	DefaultOutput bool
	Connected     bool
}

// key aliases differ between macOS releases
var (
	nameKeys      = []string{"_name", "name"}
	transportKeys = []string{"coreaudio_device_transport", "coreaudio_transport", "transport", "coreaudio_device_interface"}
	defaultKeys   = []string{"coreaudio_device_is_default_output", "coreaudio_default_audio_output_device", "coreaudio_default_output_device", "default_output_device", "coreaudio_is_default_output"}
	connectedKeys = []string{"coreaudio_device_is_alive", "device_is_alive", "device_active", "device_is_connected", "connected", "device_connected"}
)

type profilerOutput struct {
	Audio []struct {
		Items []map[string]any `json:"_items"`
	} `json:"SPAudioDataType"`
}

// ParseProfiler decodes `system_profiler SPAudioDataType -json` output.
// Entries without a name are skipped; a missing liveness flag counts as connected.
func ParseProfiler(data []byte) ([]Record, error) {
	var out profilerOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}

	var records []Record
	for _, section := range out.Audio {
		for _, item := range section.Items {
			name := firstString(item, nameKeys)
			if name == "" {
				continue
			}
			_, isDefault := firstFlag(item, defaultKeys)
			found, connected := firstFlag(item, connectedKeys)
			records = append(records, Record{
				Name:          name,
				Transport:     firstString(item, transportKeys),
				DefaultOutput: isDefault,
				Connected:     connected || !found,
			})
		}
	}
	return records, nil
}

func firstString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok {
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// firstFlag reads the first recognisable boolean among keys
func firstFlag(m map[string]any, keys []string) (found, value bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		if s, isString := v.(string); isString {
			switch strings.ToLower(strings.TrimSpace(s)) {
			case "yes", "on", "spaudio_yes", "enabled":
				return true, true
			case "no", "off", "spaudio_no", "disabled":
				return true, false
			}
		}
		if b, err := cast.ToBoolE(v); err == nil {
			return true, b
		}
	}
	return false, false
}

// Current picks the default connected output, falling back to the default output
// and then to any connected one
func Current(records []Record) *Device {
	var fallback *Device
	for _, rec := range records {
		d := &Device{Name: rec.Name, Type: DetectType(rec.Name, rec.Transport), Transport: rec.Transport}
		switch {
		case rec.DefaultOutput && rec.Connected:
			return d
		case rec.DefaultOutput && fallback == nil:
			fallback = d
		case fallback == nil && rec.Connected:
			fallback = d
		}
	}
	return fallback
}

// connectedExternal lists the names of every connected external output
func connectedExternal(records []Record) []string {
	var names []string
	for _, rec := range records {
		if !rec.Connected {
			continue
		}
		t := DetectType(rec.Name, rec.Transport)
		if t.External() || (t != TypeBuiltIn && looksExternal(rec.Name)) {
			names = append(names, rec.Name)
		}
	}
	return names
}
