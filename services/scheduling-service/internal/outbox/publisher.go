package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/kunal-deshmukh/drivetrack/libs/db"
	"github.com/kunal-deshmukh/drivetrack/libs/kafkax"
	otelx "github.com/kunal-deshmukh/drivetrack/libs/otel"
	"github.com/segmentio/kafka-go"
)

// Publisher drains pending outbox rows to Kafka on a fixed interval.
type Publisher struct {
	pool      *db.Pool
	repo      *Repository
	logger    *slog.Logger
	brokers   []string
	pollEvery time.Duration
	batchSize int
}

type PublisherConfig struct {
	Brokers   string
	PollEvery time.Duration
	BatchSize int
}

func NewPublisher(pool *db.Pool, repo *Repository, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Publisher{
		pool:      pool,
		repo:      repo,
		logger:    logger,
		brokers:   kafkax.SplitBrokers(cfg.Brokers),
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
}

// Run polls until ctx is cancelled. With no brokers configured it logs once
// and returns, which keeps local single-service runs viable.
func (p *Publisher) Run(ctx context.Context) {
	if len(p.brokers) == 0 {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return
	}

	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  p.brokers,
		Balancer: &kafka.Hash{},
	})
	defer writer.Close()

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.drainOnce(ctx, writer); err != nil {
				p.logger.Error("outbox publish failed", "err", err)
			}
		}
	}
}

// drainOnce publishes one locked batch. Rows are marked published in the
// same transaction that locked them, so a crash mid-batch re-delivers the
// whole batch and consumers dedup via their inbox.
func (p *Publisher) drainOnce(ctx context.Context, writer *kafka.Writer) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	records, err := p.repo.FetchUnpublished(ctx, tx, p.batchSize)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return tx.Commit(ctx)
	}

	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		if err := writer.WriteMessages(ctx, p.toMessage(ctx, rec)); err != nil {
			return err
		}
		ids = append(ids, rec.ID)
	}

	if err := p.repo.MarkPublished(ctx, tx, ids); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// toMessage maps a record to its Kafka message. The topic is the event type
// and the key is the aggregate id, so one aggregate's events stay ordered
// within a partition.
func (p *Publisher) toMessage(ctx context.Context, rec Record) kafka.Message {
	msgCtx := otelx.ContextWithTraceContext(ctx, rec.Traceparent, rec.Tracestate)
	msg := kafka.Message{
		Topic: rec.EventType,
		Key:   []byte(rec.AggregateID),
		Value: rec.Payload,
		Headers: []kafka.Header{
			{Key: kafkax.HeaderEventID, Value: []byte(rec.EventID)},
			{Key: kafkax.HeaderEventType, Value: []byte(rec.EventType)},
		},
	}
	msg.Headers = kafkax.InjectTraceHeaders(msgCtx, msg.Headers)
	return msg
}
