package mqttbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/grid-rtu-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/grid-rtu-core/internal/rtu"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultQoS            = byte(1)
)

// Client is the slice of the MQTT client surface the bridge needs.
// *mqtt.Client satisfies it; tests substitute a fake.
type Client interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
}

// Notifier receives unsolicited values arriving from the fabric.
// *rtu.RTU satisfies it.
type Notifier interface {
	NotifyValue(coa, ioa rtu.Address, value any)
}

// Logger defines the logging capability consumed by the bridge.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Error(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}

// Options configures a fabric bridge backend.
type Options struct {
	// Client is the connected MQTT client. Required.
	Client Client

	// COA is the issuing RTU's own common address. Responses and state
	// pushes are subscribed under this address. Required.
	COA rtu.Address

	// RequestTimeout bounds the wait for a peer's response. Defaults
	// to 10s.
	RequestTimeout time.Duration

	// QoS for all fabric publishes and subscriptions. Nil selects the
	// default of 1; pointing at 0 keeps at-most-once delivery.
	QoS *byte

	// Logger is optional; a no-op sink is installed when absent.
	Logger Logger
}

// Backend bridges the core's query delegation onto the MQTT grid
// fabric.
//
// It implements the core backend capability plus Starter, Stopper and
// PeriodicityCommander. Start subscribes to the response and state
// topics of the RTU's own common address; Stop withdraws the
// subscriptions and announces the RTU offline.
type Backend struct {
	client  Client
	coa     rtu.Address
	timeout time.Duration
	qos     byte
	topics  mqtt.Topics
	logger  Logger

	mu       sync.Mutex
	pending  map[string]chan ResponseMessage
	notifier Notifier
	running  bool
}

// New creates a fabric bridge backend. The notifier is attached later
// with AttachNotifier because the core is constructed with the backend
// already in hand.
func New(opts Options) (*Backend, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("mqttbridge: client is required")
	}
	if opts.COA.IsZero() {
		return nil, fmt.Errorf("mqttbridge: own common address is required")
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	qos := defaultQoS
	if opts.QoS != nil {
		qos = *opts.QoS
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	return &Backend{
		client:  opts.Client,
		coa:     opts.COA,
		timeout: opts.RequestTimeout,
		qos:     qos,
		logger:  opts.Logger,
		pending: make(map[string]chan ResponseMessage),
	}, nil
}

// AttachNotifier wires the core surface unsolicited fabric values are
// pushed into. Until a notifier is attached, state pushes are dropped
// with a debug log line.
func (b *Backend) AttachNotifier(n Notifier) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifier = n
}

// BuildQuery constructs the wire query for the addressed point.
func (b *Backend) BuildQuery(coa, ioa rtu.Address, cot int, value any) (any, error) {
	operation := OpRead
	if value != nil {
		operation = OpWrite
	}
	return &QueryMessage{
		RequestID: uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Origin:    b.coa,
		COA:       coa,
		IOA:       ioa,
		COT:       cot,
		Operation: operation,
		Value:     value,
	}, nil
}

// SendQuery publishes the query on the fabric and waits for the
// correlated response. The wait is bounded by the configured request
// timeout and by ctx.
func (b *Backend) SendQuery(ctx context.Context, q any) (any, error) {
	msg, ok := q.(*QueryMessage)
	if !ok {
		return nil, fmt.Errorf("mqttbridge: query has unexpected type %T", q)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("mqttbridge: encoding query %s: %w", msg.RequestID, err)
	}

	responses := make(chan ResponseMessage, 1)
	b.mu.Lock()
	b.pending[msg.RequestID] = responses
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, msg.RequestID)
		b.mu.Unlock()
	}()

	topic := b.topics.Request(msg.COA.Key(), msg.RequestID)
	if err := b.client.Publish(topic, payload, b.qos, false); err != nil {
		return nil, fmt.Errorf("mqttbridge: publishing query %s: %w", msg.RequestID, err)
	}
	b.logger.Debug("mqttbridge: query published",
		"request_id", msg.RequestID, "topic", topic, "operation", msg.Operation)

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case resp := <-responses:
		if resp.Status != StatusOK {
			return nil, fmt.Errorf("%w: %s (request %s)", ErrQueryRejected, resp.Error, msg.RequestID)
		}
		return normalizeValue(resp.Value), nil
	case <-timer.C:
		return nil, fmt.Errorf("%w (request %s after %s)", ErrResponseTimeout, msg.RequestID, b.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CommandPeriodicity announces a point's new periodic status on the
// retained periodicity topic.
func (b *Backend) CommandPeriodicity(ctx context.Context, coa, ioa rtu.Address, periodic bool, cot int) error {
	msg := PeriodicityMessage{
		Timestamp: time.Now().UTC(),
		COA:       coa,
		IOA:       ioa,
		Periodic:  periodic,
		COT:       cot,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("mqttbridge: encoding periodicity command: %w", err)
	}

	topic := b.topics.Periodicity(coa.Key(), ioa.Key())
	if err := b.client.Publish(topic, payload, b.qos, true); err != nil {
		return fmt.Errorf("mqttbridge: publishing periodicity command: %w", err)
	}
	b.logger.Info("mqttbridge: periodicity announced",
		"coa", coa.String(), "ioa", ioa.String(), "periodic", periodic, "cot", cot)
	return nil
}

// Start subscribes to the response and state topics and announces the
// RTU online.
func (b *Backend) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = true
	b.mu.Unlock()

	coaKey := b.coa.Key()
	if err := b.client.Subscribe(b.topics.AllResponses(coaKey), b.qos, b.handleResponse); err != nil {
		return fmt.Errorf("mqttbridge: subscribing responses: %w", err)
	}
	if err := b.client.Subscribe(b.topics.AllStates(coaKey), b.qos, b.handleState); err != nil {
		return fmt.Errorf("mqttbridge: subscribing states: %w", err)
	}
	if err := b.client.Publish(b.topics.Status(coaKey), []byte("online"), b.qos, true); err != nil {
		b.logger.Warn("mqttbridge: online announcement failed", "error", err.Error())
	}

	b.logger.Info("mqttbridge: backend started", "coa", b.coa.String())
	return nil
}

// Stop announces the RTU offline and withdraws the fabric
// subscriptions.
func (b *Backend) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = false
	b.mu.Unlock()

	coaKey := b.coa.Key()
	if err := b.client.Publish(b.topics.Status(coaKey), []byte("offline"), b.qos, true); err != nil {
		b.logger.Warn("mqttbridge: offline announcement failed", "error", err.Error())
	}
	if err := b.client.Unsubscribe(b.topics.AllResponses(coaKey)); err != nil {
		b.logger.Warn("mqttbridge: unsubscribing responses failed", "error", err.Error())
	}
	if err := b.client.Unsubscribe(b.topics.AllStates(coaKey)); err != nil {
		b.logger.Warn("mqttbridge: unsubscribing states failed", "error", err.Error())
	}

	b.logger.Info("mqttbridge: backend stopped", "coa", b.coa.String())
	return nil
}

// handleResponse delivers a fabric response to the waiting query, if
// any. Late responses for expired requests are dropped.
func (b *Backend) handleResponse(topic string, payload []byte) error {
	var resp ResponseMessage
	if err := decodeJSON(payload, &resp); err != nil {
		return fmt.Errorf("mqttbridge: decoding response on %s: %w", topic, err)
	}

	b.mu.Lock()
	waiting, found := b.pending[resp.RequestID]
	b.mu.Unlock()
	if !found {
		b.logger.Debug("mqttbridge: response without waiting query",
			"request_id", resp.RequestID, "topic", topic)
		return nil
	}

	select {
	case waiting <- resp:
	default:
		// A duplicate delivery already filled the slot.
	}
	return nil
}

// handleState feeds an unsolicited fabric value into the core.
func (b *Backend) handleState(topic string, payload []byte) error {
	var state StateMessage
	if err := decodeJSON(payload, &state); err != nil {
		return fmt.Errorf("mqttbridge: decoding state on %s: %w", topic, err)
	}

	b.mu.Lock()
	notifier := b.notifier
	b.mu.Unlock()
	if notifier == nil {
		b.logger.Debug("mqttbridge: state push with no notifier attached", "topic", topic)
		return nil
	}

	notifier.NotifyValue(state.COA, state.IOA, normalizeValue(state.Value))
	return nil
}
