package alarms

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// Severity is the level of a system alarm.
type Severity int

const (
	SeverityUninitialised Severity = iota
	SeverityOK
	SeverityWarning
	SeverityError
	SeverityCritical
)

var severityNames = [...]string{"Uninitialised", "OK", "Warning", "Error", "Critical"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "Unknown"
	}
	return severityNames[s]
}

// MarshalJSON encodes the severity by name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Alarm names raised by modules.
const (
	Sensors  = "Sensors"
	Watchdog = "Watchdog"
)

// Alarm is one entry of the alarm table.
type Alarm struct {
	Name     string    `json:"name"`
	Severity Severity  `json:"severity"`
	Changed  time.Time `json:"changed"`
}

// Table is a concurrent-safe system alarm table.
type Table struct {
	mu     sync.RWMutex
	alarms map[string]Alarm
}

// NewTable creates an empty alarm table.
func NewTable() *Table {
	return &Table{alarms: make(map[string]Alarm)}
}

// Set records the severity of the named alarm.
func (t *Table) Set(name string, sev Severity) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if a, ok := t.alarms[name]; ok && a.Severity == sev {
		return
	}
	t.alarms[name] = Alarm{Name: name, Severity: sev, Changed: time.Now()}
}

// Clear sets the named alarm to OK.
func (t *Table) Clear(name string) {
	t.Set(name, SeverityOK)
}

// Get returns the severity of the named alarm, Uninitialised if never set.
func (t *Table) Get(name string) Severity {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.alarms[name].Severity
}

// All returns every alarm sorted by name.
func (t *Table) All() []Alarm {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Alarm, 0, len(t.alarms))
	for _, a := range t.alarms {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
