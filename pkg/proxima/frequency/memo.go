package frequency

import "sync"

type memo struct {
	mu     sync.RWMutex
	tables map[Display]Table
}

func newMemo() *memo {
	return &memo{tables: make(map[Display]Table)}
}

func (m *memo) get(d Display) (Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[d]
	if !ok {
		return nil, false
	}
	return t.clone(), true
}

func (m *memo) put(d Display, t Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[d] = t
}
