package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/covid-data-etl/internal/config"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

func TestSerializeRow(t *testing.T) {
	generated := time.Date(2021, 3, 8, 6, 0, 0, 0, time.UTC)
	table := domain.Table{
		Name:        domain.SnapshotDailySummary,
		Columns:     []string{"date", "positive", "peopleVaccinated"},
		Rows:        [][]string{{"2021-03-06", "1", "2"}, {"2021-03-07", "300", ""}},
		GeneratedAt: generated,
	}

	msg, err := serializeRow(table, 1)
	require.NoError(t, err)

	assert.Equal(t, []byte("daily_summary:1"), msg.Key)
	assert.JSONEq(t, `{"date":"2021-03-07","positive":"300","peopleVaccinated":""}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "snapshot", msg.Headers[0].Key)
	assert.Equal(t, []byte("daily_summary"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(generated.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestWriter_EmptySnapshotIsNoop(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaSnapshotTopic: "unused"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	err := w.WriteSnapshot(context.Background(), domain.Table{Name: domain.SnapshotJoined, Columns: []string{"state"}})
	assert.NoError(t, err)
}
