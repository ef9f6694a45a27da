package monitor

import "time"

// ComponentStatus is the last probe result for one store.
type ComponentStatus struct {
	Healthy  bool          `json:"healthy"`
	Critical bool          `json:"critical"`
	Error    string        `json:"error,omitempty"`
	Latency  time.Duration `json:"latency_ns"`
}

type Status struct {
	Components map[string]ComponentStatus `json:"components"`
	LastCheck  time.Time                  `json:"last_check"`
}

// Online reports whether every critical component answered the last probe.
func (s Status) Online() bool {
	if s.LastCheck.IsZero() {
		return false
	}
	for _, c := range s.Components {
		if c.Critical && !c.Healthy {
			return false
		}
	}
	return true
}
