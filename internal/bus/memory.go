package bus

import (
	"context"
	"sync"
)

// Memory is an in-process Bus used by controller tests in place of a
// real Redis instance; it implements the same fan-out semantics
// (independent channel per subscriber). Each subscriber channel buffers
// 16 payloads; Publish waits while a subscriber's buffer is full, until
// ctx is done.
type Memory struct {
	mu   sync.Mutex
	subs map[string][]chan []byte
}

// NewMemory returns an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{subs: make(map[string][]chan []byte)}
}

func (m *Memory) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	ch := make(chan []byte, 16)
	m.mu.Lock()
	m.subs[topic] = append(m.subs[topic], ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		subs := m.subs[topic]
		for i, s := range subs {
			if s == ch {
				m.subs[topic] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

func (m *Memory) Publish(ctx context.Context, topic string, payload []byte) error {
	m.mu.Lock()
	subs := append([]chan []byte{}, m.subs[topic]...)
	m.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- payload:
		case <-ctx.Done():
		}
	}
	return nil
}

func (m *Memory) Close() error {
	return nil
}
