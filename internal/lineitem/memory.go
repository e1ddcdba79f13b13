package lineitem

import (
	"context"
	"sync"
)

const subscriberBuffer = 16

// Memory is a process-local Store used when no Redis URL is configured and in tests.
type Memory struct {
	mu     sync.RWMutex
	values map[string]map[Key][]byte
	subs   map[string]map[int]chan Change
	nextID int
}

func NewMemory() *Memory {
	return &Memory{
		values: make(map[string]map[Key][]byte),
		subs:   make(map[string]map[int]chan Change),
	}
}

func (m *Memory) Get(_ context.Context, session string, key Key) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[session][key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Set(_ context.Context, session string, key Key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	vals, ok := m.values[session]
	if !ok {
		vals = make(map[Key][]byte)
		m.values[session] = vals
	}
	vals[key] = append([]byte(nil), value...)
	m.publishLocked(session, Change{Key: key})
	return nil
}

func (m *Memory) Delete(_ context.Context, session string, keys ...Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	vals := m.values[session]
	for _, k := range keys {
		if _, ok := vals[k]; !ok {
			continue
		}
		delete(vals, k)
		m.publishLocked(session, Change{Key: k, Deleted: true})
	}
	if len(vals) == 0 {
		delete(m.values, session)
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, session string) (<-chan Change, error) {
	ch := make(chan Change, subscriberBuffer)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	if m.subs[session] == nil {
		m.subs[session] = make(map[int]chan Change)
	}
	m.subs[session][id] = ch
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs[session], id)
		if len(m.subs[session]) == 0 {
			delete(m.subs, session)
		}
		m.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

// publishLocked drops the change for subscribers that are not keeping up.
func (m *Memory) publishLocked(session string, c Change) {
	for _, ch := range m.subs[session] {
		select {
		case ch <- c:
		default:
		}
	}
}

var _ Store = (*Memory)(nil)
