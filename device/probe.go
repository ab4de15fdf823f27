package device

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// systemProfiler asks macOS for its audio outputs
type systemProfiler struct{}

func (systemProfiler) Records(ctx context.Context) ([]Record, error) {
	out, err := exec.CommandContext(ctx, "system_profiler", "SPAudioDataType", "-json").Output()
	if err != nil {
		return nil, fmt.Errorf("system_profiler: %w", err)
	}
	records, err := ParseProfiler(out)
	if err != nil {
		return nil, fmt.Errorf("parse system_profiler output: %w", err)
	}
	return records, nil
}

// Fallback tries SwitchAudioSource through osascript, then the IOAudioEngine registry
func (systemProfiler) Fallback(ctx context.Context) *Device {
	script := `do shell script "SwitchAudioSource -c 2>/dev/null || echo 'unknown'"`
	out, err := exec.CommandContext(ctx, "osascript", "-e", script).Output()
	if err == nil {
		if name := strings.TrimSpace(string(out)); name != "" && name != "unknown" {
			return &Device{Name: name, Type: DetectType(name, "")}
		}
	}

	out, err = exec.CommandContext(ctx, "sh", "-c",
		`ioreg -c IOAudioEngine -k IOAudioEngineState | grep -E '"IOAudioEngineDescription"' | head -1`).Output()
	if err != nil {
		return &Device{Name: "Unknown", Type: TypeUnknown}
	}
	name := registryName(string(out))
	return &Device{Name: name, Type: DetectType(name, "")}
}

// registryName extracts the value of a `"key" = "value"` ioreg line
func registryName(line string) string {
	line = strings.TrimSpace(line)
	if _, value, ok := strings.Cut(line, "="); ok {
		return strings.Trim(strings.TrimSpace(value), `"`)
	}
	return "Unknown"
}
