package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/diagnosis/lifesave-bloodbank/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

// Decode unmarshals the message payload into v.
func (m *Message) Decode(v interface{}) error {
	return json.Unmarshal(m.Data, v)
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name("lifesave-bloodbank"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(newMessage(msg.Subject, msg.Data))
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(newMessage(msg.Subject, msg.Data))
	})
	return err
}

func (n *NATSEventBus) Close() error {
	return n.conn.Drain()
}

// ErrLocalQueueFull is returned by LocalEventBus.Publish when deliveries had
// to be dropped because the worker queue was full.
var ErrLocalQueueFull = errors.New("local event queue full")

const (
	localWorkers   = 4
	localQueueSize = 256
)

// LocalEventBus delivers events in-process on a small worker pool, so a slow
// subscriber never holds up the publisher. It is used when no NATS server is
// configured and in tests. Queue groups get one handler per group, chosen
// round-robin.
type LocalEventBus struct {
	mu     sync.Mutex
	subs   map[string][]func(*Message)
	queues map[string]map[string]*queueGroup
	closed bool

	work    chan delivery
	pending sync.WaitGroup
	workers sync.WaitGroup
}

type queueGroup struct {
	handlers []func(*Message)
	next     int
}

type delivery struct {
	handler func(*Message)
	msg     *Message
}

func NewLocalEventBus() *LocalEventBus {
	b := &LocalEventBus{
		subs:   make(map[string][]func(*Message)),
		queues: make(map[string]map[string]*queueGroup),
		work:   make(chan delivery, localQueueSize),
	}
	b.workers.Add(localWorkers)
	for i := 0; i < localWorkers; i++ {
		go b.run()
	}
	return b
}

func (b *LocalEventBus) run() {
	defer b.workers.Done()
	for d := range b.work {
		b.deliver(d)
	}
}

func (b *LocalEventBus) deliver(d delivery) {
	defer b.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Local event handler panicked", "subject", d.msg.Subject, "panic", r)
		}
	}()
	d.handler(d.msg)
}

// Publish queues one delivery per subscriber and returns without waiting for
// any of them. Deliveries that do not fit in the queue are dropped.
func (b *LocalEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing local event", "subject", subject)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}

	handlers := append([]func(*Message){}, b.subs[subject]...)
	for _, group := range b.queues[subject] {
		if len(group.handlers) == 0 {
			continue
		}
		handlers = append(handlers, group.handlers[group.next%len(group.handlers)])
		group.next++
	}

	dropped := 0
	for _, h := range handlers {
		b.pending.Add(1)
		select {
		case b.work <- delivery{handler: h, msg: newMessage(subject, payload)}:
		default:
			b.pending.Done()
			dropped++
		}
	}
	if dropped > 0 {
		return fmt.Errorf("%w: dropped %d deliveries for %s", ErrLocalQueueFull, dropped, subject)
	}
	return nil
}

func (b *LocalEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[subject] = append(b.subs[subject], handler)
	return nil
}

func (b *LocalEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	groups, ok := b.queues[subject]
	if !ok {
		groups = make(map[string]*queueGroup)
		b.queues[subject] = groups
	}
	group, ok := groups[queue]
	if !ok {
		group = &queueGroup{}
		groups[queue] = group
	}
	group.handlers = append(group.handlers, handler)
	return nil
}

// Wait blocks until every delivery queued so far has been handled. It must
// not race with Publish calls made from other goroutines.
func (b *LocalEventBus) Wait() {
	b.pending.Wait()
}

// Close stops accepting events and waits for queued deliveries to finish.
func (b *LocalEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.subs = make(map[string][]func(*Message))
	b.queues = make(map[string]map[string]*queueGroup)
	close(b.work)
	b.mu.Unlock()

	b.workers.Wait()
	return nil
}

func newMessage(subject string, data []byte) *Message {
	return &Message{
		Subject:   subject,
		Data:      data,
		Timestamp: time.Now(),
		ID:        uuid.NewString(),
	}
}

// Event subjects
const (
	DonorSubmitted = "donor.submitted"
	DonorApproved  = "donor.approved"
	DonorRejected  = "donor.rejected"
	DonorDeleted   = "donor.deleted"

	StaffCreated = "staff.created"
	StaffDeleted = "staff.deleted"
)

// Event payloads
type DonorSubmittedEvent struct {
	DonorID     string    `json:"donor_id"`
	Name        string    `json:"name"`
	BloodGroup  string    `json:"blood_group"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type DonorReviewedEvent struct {
	DonorID    string    `json:"donor_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	BloodGroup string    `json:"blood_group"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	ReviewedBy string    `json:"reviewed_by"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

type DonorDeletedEvent struct {
	DonorID   string    `json:"donor_id"`
	DeletedBy string    `json:"deleted_by"`
	DeletedAt time.Time `json:"deleted_at"`
}

type StaffEvent struct {
	StaffID string    `json:"staff_id"`
	Email   string    `json:"email"`
	ActorID string    `json:"actor_id"`
	At      time.Time `json:"at"`
}
