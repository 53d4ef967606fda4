package s3

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

type recordingPutter struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (p *recordingPutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if p.err != nil {
		return nil, p.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	p.inputs = append(p.inputs, in)
	p.bodies = append(p.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSink_WriteSnapshot(t *testing.T) {
	putter := &recordingPutter{}
	sink := NewSinkWithClient(putter, "covid", "runs/latest", discardLogger())

	table := domain.Table{
		Name:    domain.SnapshotJoined,
		Columns: []string{"state", "date", "positive"},
		Rows:    [][]string{{"CA", "2021-03-07", "3501394"}},
	}
	require.NoError(t, sink.WriteSnapshot(context.Background(), table))

	require.Len(t, putter.inputs, 1)
	in := putter.inputs[0]
	assert.Equal(t, "covid", aws.ToString(in.Bucket))
	assert.Equal(t, "runs/latest/joined.csv", aws.ToString(in.Key))
	assert.Equal(t, "text/csv", aws.ToString(in.ContentType))
	assert.Equal(t, "state,date,positive\nCA,2021-03-07,3501394\n", putter.bodies[0])
}

func TestSink_KeyWithoutPrefix(t *testing.T) {
	sink := NewSinkWithClient(&recordingPutter{}, "covid", "", discardLogger())
	assert.Equal(t, "trends.csv", sink.Key(domain.SnapshotTrends))
}

func TestSink_PutError(t *testing.T) {
	putter := &recordingPutter{err: errors.New("access denied")}
	sink := NewSinkWithClient(putter, "covid", "snapshots", discardLogger())

	err := sink.WriteSnapshot(context.Background(), domain.Table{Name: domain.SnapshotTrends, Columns: []string{"metric"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://covid/snapshots/trends.csv")
	assert.Contains(t, err.Error(), "access denied")
}
