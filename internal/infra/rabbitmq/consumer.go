package rabbitmq

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type MessageHandler func(ctx context.Context, body []byte) error

// QueueBinding attaches one queue to the exchange under a routing key and
// names the handler plus the number of workers draining it.
type QueueBinding struct {
	Queue      string
	RoutingKey string
	Workers    int
	Handler    MessageHandler
}

type Consumer struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	bindings  []QueueBinding
	baseDelay time.Duration
	logger    *zap.Logger
	wg        sync.WaitGroup
}

type ConsumerConfig struct {
	URL         string
	Exchange    string
	DLQ         string
	StatusQueue string
	Prefetch    int
	BaseDelayMs int
	Bindings    []QueueBinding
}

// NewConsumer declares the exchange, the bound event queues, the status
// queue and the DLQ, and sets prefetch. Workers are started by Start.
func NewConsumer(cfg ConsumerConfig, logger *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	queues := []string{cfg.DLQ, cfg.StatusQueue}
	for _, b := range cfg.Bindings {
		queues = append(queues, b.Queue)
	}
	for _, q := range queues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	for _, b := range cfg.Bindings {
		if err := ch.QueueBind(b.Queue, b.RoutingKey, cfg.Exchange, false, nil); err != nil {
			return nil, fmt.Errorf("bind queue %s: %w", b.Queue, err)
		}
	}
	// The status queue is bound under its own name; StatusPublisher
	// publishes with the same key.
	if err := ch.QueueBind(cfg.StatusQueue, cfg.StatusQueue, cfg.Exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind status queue: %w", err)
	}

	if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	return &Consumer{
		conn:      conn,
		channel:   ch,
		bindings:  cfg.Bindings,
		baseDelay: time.Duration(cfg.BaseDelayMs) * time.Millisecond,
		logger:    logger,
	}, nil
}

// Start launches the worker pools for every binding and blocks until ctx
// is cancelled and all workers have drained.
func (c *Consumer) Start(ctx context.Context) error {
	for _, b := range c.bindings {
		deliveries, err := c.channel.ConsumeWithContext(
			ctx,
			b.Queue,
			"",
			false, // autoAck=false
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("consume %s: %w", b.Queue, err)
		}

		c.logger.Info("starting worker pool",
			zap.Int("workers", b.Workers),
			zap.String("queue", b.Queue),
		)
		for i := 0; i < b.Workers; i++ {
			c.wg.Add(1)
			go c.worker(ctx, b, i, deliveries)
		}
	}

	<-ctx.Done()
	c.logger.Info("context cancelled, waiting for workers to finish")
	c.wg.Wait()
	return nil
}

func (c *Consumer) worker(ctx context.Context, b QueueBinding, id int, deliveries <-chan amqp.Delivery) {
	defer c.wg.Done()
	log := c.logger.With(zap.String("queue", b.Queue), zap.Int("worker_id", id))
	log.Info("worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			return
		case d, ok := <-deliveries:
			if !ok {
				log.Info("delivery channel closed")
				return
			}
			c.processDelivery(ctx, b.Handler, d, log)
		}
	}
}

func (c *Consumer) processDelivery(ctx context.Context, handler MessageHandler, d amqp.Delivery, log *zap.Logger) {
	err := handler(ctx, d.Body)
	if err != nil {
		log.Warn("message processing failed, nacking",
			zap.Error(err),
			zap.Uint64("delivery_tag", d.DeliveryTag),
		)

		attempt := c.getAttemptFromHeaders(d)
		delay := c.calculateBackoff(attempt)
		log.Info("backoff before requeue", zap.Duration("delay", delay), zap.Int("attempt", attempt))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			_ = d.Nack(false, false)
			return
		}

		_ = d.Nack(false, true) // requeue=true
		return
	}

	_ = d.Ack(false)
}

func (c *Consumer) getAttemptFromHeaders(d amqp.Delivery) int {
	if d.Headers == nil {
		return 1
	}
	if xDeath, ok := d.Headers["x-death"]; ok {
		if deaths, ok := xDeath.([]interface{}); ok && len(deaths) > 0 {
			return len(deaths)
		}
	}
	return 1
}

func (c *Consumer) calculateBackoff(attempt int) time.Duration {
	delay := c.baseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > 60*time.Second {
		delay = 60 * time.Second
	}
	return delay
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
