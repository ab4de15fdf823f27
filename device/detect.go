// Package device watches the active audio output and reports when an external
// output such as headphones or a bluetooth speaker goes away.
package device

import "strings"

type Type int

const (
	TypeUnknown    Type = iota
	TypeBuiltIn         // built-in speakers
	TypeBluetooth       // bluetooth audio device
	TypeUSB             // USB DAC or interface
	TypeHDMI            // HDMI or DisplayPort audio
	TypeHeadphones      // wired headphones
)

func (t Type) String() string {
	switch t {
	case TypeBuiltIn:
		return "built-in"
	case TypeBluetooth:
		return "bluetooth"
	case TypeUSB:
		return "usb"
	case TypeHDMI:
		return "hdmi"
	case TypeHeadphones:
		return "headphones"
	}
	return "unknown"
}

// External reports whether losing this output should pause playback
func (t Type) External() bool {
	switch t {
	case TypeBluetooth, TypeUSB, TypeHDMI, TypeHeadphones:
		return true
	}
	return false
}

// Device is one audio output as seen by the probe
type Device struct {
	Name      string
	Type      Type
	Transport string
}

var transportTypes = map[string]Type{
	"bluetooth":         TypeBluetooth,
	"wireless":          TypeBluetooth,
	"ble":               TypeBluetooth,
	"usb":               TypeUSB,
	"usb audio":         TypeUSB,
	"usb audio device":  TypeUSB,
	"usbaudio":          TypeUSB,
	"hdmi":              TypeHDMI,
	"displayport":       TypeHDMI,
	"display port":      TypeHDMI,
	"thunderbolt":       TypeHDMI,
	"built-in":          TypeBuiltIn,
	"internal":          TypeBuiltIn,
	"headphone":         TypeHeadphones,
	"headset":           TypeHeadphones,
	"line out":          TypeHeadphones,
	"3.5mm":             TypeHeadphones,
	"analog":            TypeHeadphones,
}

// name fragments checked in order; the first match wins
var nameTypes = []struct {
	t     Type
	parts []string
}{
	{TypeBluetooth, []string{"bluetooth", "airpods", "beats", "sony wh", "sony wf", "bose", "jabra", "sennheiser", "jbl", "marshall", "b&o", "bang & olufsen"}},
	{TypeBuiltIn, []string{"built-in", "internal", "macbook", "imac", "mac mini", "mac pro", "speakers"}},
	{TypeUSB, []string{"usb", "dac", "audio interface"}},
	{TypeHDMI, []string{"hdmi", "displayport", "display audio"}},
	{TypeHeadphones, []string{"headphone", "headset"}},
}

var (
	externalHints = []string{"bluetooth", "airpods", "beats", "sony", "bose", "jabra", "sennheiser", "jbl", "marshall", "wireless", "usb", "hdmi", "displayport", "headphone", "headset", "external"}
	builtInHints  = []string{"built-in", "internal", "macbook", "imac", "mac mini", "mac pro"}
)

// DetectType classifies an output by transport first, then by well-known names
func DetectType(name, transport string) Type {
	if t, ok := transportTypes[strings.ToLower(strings.TrimSpace(transport))]; ok {
		return t
	}
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, nt := range nameTypes {
		if containsAny(lower, nt.parts) {
			return nt.t
		}
	}
	return TypeUnknown
}

// looksExternal catches outputs whose type is unknown but whose name says otherwise
func looksExternal(name string) bool {
	lower := strings.ToLower(name)
	return containsAny(lower, externalHints) && !containsAny(lower, builtInHints)
}

func containsAny(s string, parts []string) bool {
	for _, p := range parts {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// sameDevice compares names loosely; probes report "AirPods" and "Jane's AirPods" for one device
func sameDevice(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	return la == lb || strings.Contains(la, lb) || strings.Contains(lb, la)
}
