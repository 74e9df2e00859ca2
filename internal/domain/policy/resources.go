package policy

import (
	"fmt"
	"strconv"
	"strings"
)

// ResourceLimits holds the sandbox's fuel/memory/time budget. Fields are
// nil when the document leaves them unset; a nil field resolves to zero,
// which the capability mapper passes through unchanged: no memory-page
// cap beyond the runtime's own and no execution deadline.
type ResourceLimits struct {
	CPU            *string `yaml:"cpu,omitempty"`
	Memory         *string `yaml:"memory,omitempty"`
	ExecutionTime  *string `yaml:"execution_time,omitempty"`
	Fuel           *uint64 `yaml:"fuel,omitempty"`
}

// ResolvedLimits is the numeric form consumed by the capability mapper and
// sandbox host: millicores, bytes, and a time.Duration-compatible
// millisecond count.
type ResolvedLimits struct {
	CPUMillicores uint64
	MemoryBytes   uint64
	ExecutionMS   uint64
	Fuel          uint64
}

// Resolve parses the string-unit fields into concrete numbers. The unit
// grammar mirrors Kubernetes-style resource quantities: cpu accepts a
// millicore suffix ("100m") or a bare core count ("0.5" == 500m); memory
// accepts Ki/Mi/Gi (1024-based) suffixes; execution_time accepts ms/s/m
// suffixes.
func (r ResourceLimits) Resolve() (ResolvedLimits, error) {
	var out ResolvedLimits
	var err error
	if r.CPU != nil {
		out.CPUMillicores, err = parseCPU(*r.CPU)
		if err != nil {
			return out, err
		}
	}
	if r.Memory != nil {
		out.MemoryBytes, err = parseMemory(*r.Memory)
		if err != nil {
			return out, err
		}
	}
	if r.ExecutionTime != nil {
		out.ExecutionMS, err = parseExecutionTime(*r.ExecutionTime)
		if err != nil {
			return out, err
		}
	}
	if r.Fuel != nil {
		out.Fuel = *r.Fuel
	}
	return out, nil
}

func parseCPU(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("resources.cpu: empty value")
	}
	if strings.HasSuffix(s, "m") {
		n, err := strconv.ParseUint(strings.TrimSuffix(s, "m"), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("resources.cpu: invalid millicore value %q: %w", s, err)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("resources.cpu: invalid core count %q: %w", s, err)
	}
	return uint64(f * 1000), nil
}

func parseMemory(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	suffixes := []struct {
		suffix string
		mult   uint64
	}{
		{"Gi", 1024 * 1024 * 1024},
		{"Mi", 1024 * 1024},
		{"Ki", 1024},
	}
	for _, sfx := range suffixes {
		if strings.HasSuffix(s, sfx.suffix) {
			n, err := strconv.ParseUint(strings.TrimSuffix(s, sfx.suffix), 10, 64)
			if err != nil {
				return 0, fmt.Errorf("resources.memory: invalid value %q: %w", s, err)
			}
			return n * sfx.mult, nil
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("resources.memory: invalid value %q: %w", s, err)
	}
	return n, nil
}

func parseExecutionTime(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasSuffix(s, "ms"):
		n, err := strconv.ParseUint(strings.TrimSuffix(s, "ms"), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("resources.execution_time: invalid value %q: %w", s, err)
		}
		return n, nil
	case strings.HasSuffix(s, "s"):
		n, err := strconv.ParseUint(strings.TrimSuffix(s, "s"), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("resources.execution_time: invalid value %q: %w", s, err)
		}
		return n * 1000, nil
	case strings.HasSuffix(s, "m"):
		n, err := strconv.ParseUint(strings.TrimSuffix(s, "m"), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("resources.execution_time: invalid value %q: %w", s, err)
		}
		return n * 60000, nil
	default:
		return 0, fmt.Errorf("resources.execution_time: missing unit suffix (ms/s/m) in %q", s)
	}
}
