// Package tasks is the in-process fire-and-forget queue for side effects
// (profile refreshes, lifecycle emails) that must never block or fail a
// webhook acknowledgement.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	TopicProfileSync       = "tasks.profile_sync"
	TopicSubscriptionEmail = "tasks.subscription_email"
)

// Handler processes one task payload. Errors are logged, not retried; tasks
// here are best-effort by contract.
type Handler func(ctx context.Context, payload []byte)

type Dispatcher struct {
	pubSub *gochannel.GoChannel
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{},
			watermill.NewStdLogger(false, false),
		),
	}
}

func (d *Dispatcher) Dispatch(topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal task payload: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	return d.pubSub.Publish(topic, msg)
}

func (d *Dispatcher) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := d.pubSub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("[ERROR] Task handler panic on %s: %v", topic, r)
					}
				}()
				handler(ctx, msg.Payload)
			}()
			// Always ack: best-effort tasks must not loop forever
			msg.Ack()
		}
	}()

	return nil
}

func (d *Dispatcher) Close() error {
	return d.pubSub.Close()
}
