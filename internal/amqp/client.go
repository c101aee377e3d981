// Package amqp publishes and consumes ledger events over RabbitMQ.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"

	"finapp/internal/log"
	"finapp/internal/ports"
)

const (
	publishTimeout = 5 * time.Second
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	redialTimeout  = 3 * time.Second
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

var _ ports.EventPublisher = (*Client)(nil)

type Config struct {
	URL      string
	Exchange string
	Queue    string
	// DialTimeout bounds the total time spent retrying the initial dial.
	DialTimeout time.Duration
}

// channel is the part of *amqp091.Channel the client uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	Close() error
}

// Handler processes one decoded ledger event. A returned error requeues the
// delivery.
type Handler func(ctx context.Context, e ports.LedgerEvent) error

type Client struct {
	cfg     Config
	logger  *log.Logger
	breaker *gobreaker.CircuitBreaker
	dial    dialFunc

	mu   sync.Mutex
	conn io.Closer
	ch   channel
}

// dialFunc opens a connection and a channel on it.
type dialFunc func(url string, timeout time.Duration) (io.Closer, channel, error)

func dialBroker(url string, timeout time.Duration) (io.Closer, channel, error) {
	conn, err := amqp091.DialConfig(url, amqp091.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp091.DefaultDial(timeout),
	})
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	return conn, ch, nil
}

// Dial connects to the broker, retrying with exponential backoff until
// cfg.DialTimeout elapses, and declares the exchange and queue.
func Dial(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	c := newClient(cfg, logger)
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func newClient(cfg Config, logger *log.Logger) *Client {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = time.Minute
	}
	logger = logger.WithComponent(log.ComponentAMQP)
	return &Client{
		cfg:    cfg,
		logger: logger,
		dial:   dialBroker,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "amqp-publish",
			MaxRequests: 1,
			Timeout:     openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

// connect is the startup dial. It retries with backoff and is not used on
// the publish path.
func (c *Client) connect(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = c.cfg.DialTimeout

	var (
		conn io.Closer
		ch   channel
	)
	open := func() error {
		var err error
		conn, ch, err = c.open()
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.WarnContext(ctx, "AMQP dial failed, retrying", log.FieldError, err, "wait", wait)
	}
	if err := backoff.RetryNotify(open, backoff.WithContext(b, ctx), notify); err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	c.mu.Lock()
	c.replaceLocked(conn, ch)
	c.mu.Unlock()
	c.logger.InfoContext(ctx, "Connected to AMQP broker", "exchange", c.cfg.Exchange, "queue", c.cfg.Queue)
	return nil
}

// open dials once and declares the topology.
func (c *Client) open() (io.Closer, channel, error) {
	conn, ch, err := c.dial(c.cfg.URL, redialTimeout)
	if err != nil {
		return nil, nil, err
	}
	if err := setup(ch, c.cfg.Exchange, c.cfg.Queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return conn, ch, nil
}

// redial replaces the connection behind stale with a single dial attempt.
// Publishers that failed on the same channel share one redial.
func (c *Client) redial(ctx context.Context, stale channel) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return errors.New("connection closed")
	}
	if c.ch != stale {
		return nil
	}
	conn, ch, err := c.open()
	if err != nil {
		c.logger.WarnContext(ctx, "AMQP redial failed", log.FieldError, err)
		return err
	}
	c.replaceLocked(conn, ch)
	c.logger.InfoContext(ctx, "Reconnected to AMQP broker")
	return nil
}

// replaceLocked closes the current connection and installs the new one.
// c.mu must be held.
func (c *Client) replaceLocked(conn io.Closer, ch channel) {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn, c.ch = conn, ch
}

// setup declares a durable direct exchange and a durable queue bound with
// the queue name as routing key.
func setup(ch channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishLedgerEvent sends e as a persistent JSON message. Publishing goes
// through a circuit breaker; a broken connection is redialled once without
// backoff.
func (c *Client) PublishLedgerEvent(ctx context.Context, e ports.LedgerEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := EncodeLedgerEvent(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = c.breaker.Execute(func() (any, error) {
		ch := c.current()
		err := c.publish(ctx, ch, body)
		if err != nil && ch != nil && isConnectionError(err) {
			if rerr := c.redial(ctx, ch); rerr == nil {
				err = c.publish(ctx, c.current(), body)
			}
		}
		return nil, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	c.logger.DebugContext(ctx, "Published ledger event",
		log.FieldEventKind, string(e.Kind), log.FieldWalletID, e.WalletID, "version", e.Version)
	return nil
}

func (c *Client) current() channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch
}

func (c *Client) publish(ctx context.Context, ch channel, body []byte) error {
	if ch == nil {
		return errors.New("connection closed")
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return ch.PublishWithContext(ctx, c.cfg.Exchange, c.cfg.Queue, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

// ConsumeLedgerEvents delivers events to handler until ctx is done.
// Malformed messages are dropped, handler failures are requeued.
func (c *Client) ConsumeLedgerEvents(ctx context.Context, handler Handler) error {
	ch := c.current()
	if ch == nil {
		return errors.New("connection closed")
	}

	deliveries, err := ch.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	c.logger.InfoContext(ctx, "Started consuming ledger events", "queue", c.cfg.Queue)

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("message channel closed")
			}
			c.handleDelivery(ctx, d, handler)
		}
	}
}

func (c *Client) handleDelivery(ctx context.Context, d amqp091.Delivery, handler Handler) {
	e, err := DecodeLedgerEvent(d.Body)
	if err != nil {
		c.logger.ErrorContext(ctx, "Dropping malformed message", log.FieldError, err)
		if err := d.Nack(false, false); err != nil {
			c.logger.WarnContext(ctx, "Nack failed", log.FieldError, err)
		}
		return
	}

	if err := handler(ctx, e); err != nil {
		c.logger.ErrorContext(ctx, "Failed to handle ledger event",
			log.FieldEventKind, string(e.Kind), log.FieldTransactionID, e.TransactionID, log.FieldError, err)
		if err := d.Nack(false, true); err != nil {
			c.logger.WarnContext(ctx, "Nack failed", log.FieldError, err)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		c.logger.WarnContext(ctx, "Ack failed", log.FieldError, err)
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ch != nil {
		c.ch.Close()
		c.ch = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "connection closed", "eof", "broken pipe", "use of closed network connection", "channel/connection is not open"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
