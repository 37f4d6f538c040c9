package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/tu-usuario/stock-ledger/internal/domain"
)

// LockManager administra locks exclusivos por fila (ítem, ubicación) con
// espera bloqueante acotada. Los pedidos multi-fila se deduplican y ordenan
// en un orden canónico antes de adquirir, de modo que dos Move concurrentes
// que piden el mismo par en orden opuesto no pueden interbloquearse.
type LockManager struct {
	timeout time.Duration
	mu      sync.Mutex // protege sems
	sems    map[string]chan struct{}
}

// NewLockManager construye el manager con el presupuesto de espera por
// adquisición (30s en producción).
func NewLockManager(timeout time.Duration) *LockManager {
	return &LockManager{
		timeout: timeout,
		sems:    make(map[string]chan struct{}),
	}
}

// LockHandle representa un conjunto de locks adquiridos. Release los libera
// en orden inverso a la adquisición.
type LockHandle struct {
	mgr  *LockManager
	keys []string
}

// Keys devuelve las claves bloqueadas, en el orden canónico de adquisición.
func (h *LockHandle) Keys() []string { return h.keys }

// Release libera todos los locks del handle.
func (h *LockHandle) Release() {
	for i := len(h.keys) - 1; i >= 0; i-- {
		<-h.mgr.sem(h.keys[i])
	}
}

func (m *LockManager) sem(key string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sems[key]
	if !ok {
		s = make(chan struct{}, 1)
		m.sems[key] = s
	}
	return s
}

// Acquire bloquea las filas indicadas, o falla con domain.ErrLockTimeout si
// el presupuesto de espera se agota. En caso de timeout no queda retenido
// ningún lock parcial.
func (m *LockManager) Acquire(keys ...string) (*LockHandle, error) {
	ks := canonicalKeys(keys)
	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	held := make([]string, 0, len(ks))
	for _, k := range ks {
		select {
		case m.sem(k) <- struct{}{}:
			held = append(held, k)
		case <-timer.C:
			for i := len(held) - 1; i >= 0; i-- {
				<-m.sem(held[i])
			}
			return nil, domain.ErrLockTimeout
		}
	}
	return &LockHandle{mgr: m, keys: ks}, nil
}

// canonicalKeys deduplica y ordena: el orden de adquisición nunca es el del
// caller.
func canonicalKeys(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
