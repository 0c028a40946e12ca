package notifier

import (
	"context"
	"sync"
)

// Event 記憶體版通知，測試與單機部署使用。
type Event struct {
	Topic   string
	Payload interface{}
}

// MemoryNotifier 以 channel 模擬 Pub/Sub 的 Notifier。
type MemoryNotifier struct {
	mu   sync.RWMutex
	subs map[string][]chan Event
	// 保留所有事件供測試斷言
	events []Event
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{subs: make(map[string][]chan Event)}
}

func (n *MemoryNotifier) Publish(ctx context.Context, topic string, payload interface{}) error {
	n.mu.Lock()
	n.events = append(n.events, Event{Topic: topic, Payload: payload})
	subs := append([]chan Event(nil), n.subs[topic]...)
	n.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- Event{Topic: topic, Payload: payload}:
		default:
			// 訂閱端堵塞時丟棄，發布端永不阻塞
		}
	}
	return nil
}

// Subscribe 訂閱主題，回傳帶緩衝的事件 channel。
func (n *MemoryNotifier) Subscribe(topic string) <-chan Event {
	ch := make(chan Event, 64)
	n.mu.Lock()
	n.subs[topic] = append(n.subs[topic], ch)
	n.mu.Unlock()
	return ch
}

// Events 回傳已發布事件的副本
func (n *MemoryNotifier) Events() []Event {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]Event(nil), n.events...)
}

// EventsForTopic 回傳指定主題的事件
func (n *MemoryNotifier) EventsForTopic(topic string) []Event {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]Event, 0)
	for _, e := range n.events {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}
