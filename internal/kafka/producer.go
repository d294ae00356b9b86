package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

type Producer struct {
	client *kgo.Client
}

func NewProducer(brokers []string) (*Producer, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.RecordPartitioner(kgo.StickyKeyPartitioner(nil)),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Producer{client: cl}, nil
}

// Publish writes a single record and waits for the broker ack.
func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	res := p.client.ProduceSync(ctx, &kgo.Record{
		Topic: topic,
		Key:   key,
		Value: value,
	})
	return res.FirstErr()
}

func (p *Producer) Close(ctx context.Context) {
	if p.client == nil {
		return
	}
	_ = p.client.Flush(ctx)
	p.client.Close()
}
