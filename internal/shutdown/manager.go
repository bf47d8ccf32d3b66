// Package shutdown coordinates orderly teardown: components register
// themselves and are closed in reverse order when a termination signal
// arrives or the application quits.
package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"smiv/internal/logger"
)

// Shutdownable is anything that needs a clean stop: open windows, log
// sinks, slide handles.
type Shutdownable interface {
	Shutdown()
}

// componentTimeout bounds how long one component may block teardown.
const componentTimeout = 10 * time.Second

type Manager struct {
	mu         sync.Mutex
	components []Shutdownable
	log        logger.Logger
	done       chan struct{}
}

func NewManager(log logger.Logger) *Manager {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Manager{
		log:  log,
		done: make(chan struct{}),
	}
}

// Register adds a component. Components are stopped in reverse
// registration order.
func (m *Manager) Register(c Shutdownable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, c)
}

// Listen installs the signal handler. SIGINT and SIGTERM trigger one
// shutdown sequence.
func (m *Manager) Listen() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		m.log.Info("shutdown", "termination signal received", map[string]interface{}{
			"signal": sig.String(),
		})
		m.Shutdown()
	}()
}

// Shutdown runs the teardown sequence exactly once. A component that
// exceeds its timeout is abandoned so one stuck handle cannot wedge exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.done:
		return
	default:
		close(m.done)
	}

	for i := len(m.components) - 1; i >= 0; i-- {
		c := m.components[i]

		finished := make(chan struct{})
		go func() {
			defer close(finished)
			c.Shutdown()
		}()

		select {
		case <-finished:
		case <-time.After(componentTimeout):
			m.log.Warning("shutdown", "component timed out during teardown", map[string]interface{}{
				"component_index": i,
			})
		}
	}
}

// Done closes once the shutdown sequence has started.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}
