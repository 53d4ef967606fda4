package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/covid-data-etl/internal/config"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// Writer publishes snapshot rows to a Kafka topic, one message per row.
// It implements snapshot.Writer.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured snapshot topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSnapshotTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// WriteSnapshot serializes every row of the table and publishes them in a
// single WriteMessages call. Empty tables publish nothing.
func (w *Writer) WriteSnapshot(ctx context.Context, t domain.Table) error {
	if t.Len() == 0 {
		w.logger.Debug("skipping empty snapshot", "snapshot", t.Name)
		return nil
	}
	msgs := make([]kafkago.Message, t.Len())
	for i := range t.Rows {
		msg, err := serializeRow(t, i)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeRow marshals row i as a JSON object keyed by column name.
func serializeRow(t domain.Table, i int) (kafkago.Message, error) {
	data, err := json.Marshal(t.RowMap(i))
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s row %d: %w", t.Name, i, err)
	}
	return kafkago.Message{
		Key:   []byte(t.Name + ":" + strconv.Itoa(i)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "snapshot", Value: []byte(t.Name)},
			{Key: "generated_at", Value: []byte(t.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
