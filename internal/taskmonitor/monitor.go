package taskmonitor

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Info describes one monitored task.
type Info struct {
	Name       string    `json:"name"`
	Running    bool      `json:"running"`
	StartedAt  time.Time `json:"started_at"`
	Iterations uint64    `json:"iterations"`
	LastTick   time.Time `json:"last_tick"`
}

// Task is the handle a running task uses to report progress.
type Task struct {
	name       string
	startedAt  time.Time
	running    atomic.Bool
	iterations atomic.Uint64
	lastTick   atomic.Int64
}

// Tick records one completed loop iteration.
func (t *Task) Tick() {
	t.iterations.Add(1)
	t.lastTick.Store(time.Now().UnixNano())
}

// Stop marks the task as no longer running.
func (t *Task) Stop() {
	t.running.Store(false)
}

func (t *Task) info() Info {
	i := Info{
		Name:       t.name,
		Running:    t.running.Load(),
		StartedAt:  t.startedAt,
		Iterations: t.iterations.Load(),
	}
	if ns := t.lastTick.Load(); ns != 0 {
		i.LastTick = time.Unix(0, ns)
	}
	return i
}

// Monitor keeps the table of running tasks.
type Monitor struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

// New creates an empty Monitor.
func New() *Monitor {
	return &Monitor{tasks: make(map[string]*Task)}
}

// Add registers a running task. Adding a name again replaces the previous entry.
func (m *Monitor) Add(name string) *Task {
	t := &Task{name: name, startedAt: time.Now()}
	t.running.Store(true)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[name] = t
	return t
}

// Tasks returns every task sorted by name.
func (m *Monitor) Tasks() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Info, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
