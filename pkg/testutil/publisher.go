package testutil

import (
	"context"
	"sync"

	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/pubsub"
)

type MockPublisher struct {
	PublishFunc func(context.Context, string, *pubsub.Pack) error
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, pack *pubsub.Pack) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, pack)
	}

	return errorx.New(errorx.NotImplemented, "Not implemented")
}

// RecordPublisher keeps every published pack in memory.
type RecordPublisher struct {
	mu    sync.Mutex
	Packs map[string][]*pubsub.Pack
}

func NewRecordPublisher() *RecordPublisher {
	return &RecordPublisher{Packs: map[string][]*pubsub.Pack{}}
}

func (p *RecordPublisher) Publish(ctx context.Context, topic string, pack *pubsub.Pack) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Packs[topic] = append(p.Packs[topic], pack)
	return nil
}

func (p *RecordPublisher) Count(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.Packs[topic])
}
