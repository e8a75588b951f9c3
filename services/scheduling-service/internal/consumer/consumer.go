package consumer

import (
	"context"
	"log/slog"
	"time"

	"github.com/kunal-deshmukh/drivetrack/libs/kafkax"
	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/inbox"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const readRetryDelay = time.Second

// Handler processes one deduplicated message.
type Handler func(ctx context.Context, msg kafka.Message) error

type Config struct {
	Brokers string
	GroupID string
	Topic   string
}

// Consumer reads branch events from Kafka and applies them exactly once via
// the inbox table.
type Consumer struct {
	reader  *kafka.Reader
	logger  *slog.Logger
	inbox   *inbox.Repository
	handler Handler
}

func New(logger *slog.Logger, inboxRepo *inbox.Repository, cfg Config, handler Handler) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  kafkax.SplitBrokers(cfg.Brokers),
			GroupID:  cfg.GroupID,
			Topic:    cfg.Topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		logger:  logger,
		inbox:   inboxRepo,
		handler: handler,
	}
}

// Run consumes until ctx is cancelled. Handler errors are logged and the
// message is left behind; the offset has already advanced, so the inbox row
// is the only record of a failed event.
func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka read error", "err", err)
			time.Sleep(readRetryDelay)
			continue
		}
		c.process(ctx, msg)
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	ctx = kafkax.ExtractTraceContext(ctx, msg)
	ctx, span := otel.Tracer("kafka").Start(ctx, "kafka.consume",
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
		),
	)
	defer span.End()

	meta := kafkax.ExtractEventMeta(msg)
	fresh, err := c.inbox.Record(ctx, meta.EventID, meta.EventType)
	if err != nil {
		c.logger.Error("inbox record failed", "err", err)
		span.RecordError(err)
		return
	}
	if !fresh {
		c.logger.Info("duplicate event ignored", "event_id", meta.EventID, "event_type", meta.EventType)
		return
	}

	if err := c.handler(ctx, msg); err != nil {
		c.logger.Error("handler error", "err", err, "event_id", meta.EventID)
		span.RecordError(err)
	}
}
