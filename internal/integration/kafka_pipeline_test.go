//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/drought-index-etl/internal/adapter/kafka"
	"github.com/couchcryptid/drought-index-etl/internal/config"
	"github.com/couchcryptid/drought-index-etl/internal/domain"
	"github.com/couchcryptid/drought-index-etl/internal/observability"
	"github.com/couchcryptid/drought-index-etl/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSourceTopic = "test-source"
	testSinkTopic   = "test-sink"
)

var defaultOptions = domain.ReportOptions{
	DefaultScale:   domain.ScaleMonthly,
	DefaultIndices: []domain.IndexKind{domain.IndexCZI, domain.IndexMCZI, domain.IndexComposite},
}

// reportMessage holds a deserialized message read from the sink topic.
type reportMessage struct {
	Report  domain.IndexReport
	Key     string
	Headers map[string]string
}

// readReport reads a single message from the sink consumer and deserializes it.
func readReport(ctx context.Context, t *testing.T, consumer *kafkago.Reader) reportMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var report domain.IndexReport
	require.NoError(t, json.Unmarshal(msg.Value, &report), "unmarshal sink message")

	return reportMessage{Report: report, Key: string(msg.Key), Headers: headers}
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func sinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

func sourceProducer(t *testing.T, broker string) *kafkago.Writer {
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	return producer
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (Extractor) and
// kafka.Writer (Loader) correctly round-trip a station request through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-reader")

	req := loadMockData(t)
	payload, err := json.Marshal(req)
	require.NoError(t, err)

	require.NoError(t, sourceProducer(t, broker).WriteMessages(ctx, kafkago.Message{
		Key:   []byte(req.StationID),
		Value: payload,
	}))

	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte(req.StationID), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	transformer := pipeline.NewTransformer(defaultOptions, observability.NewMetricsForTesting(), discardLogger())
	report, err := transformer.Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []domain.IndexReport{report}))

	rm := readReport(ctx, t, sinkConsumer(t, broker))
	assert.Equal(t, req.StationID, rm.Key)
	assert.Equal(t, req.StationID, rm.Headers["station_id"])
	assert.Equal(t, "monthly", rm.Headers["scale"])
	_, err = time.Parse(time.RFC3339, rm.Headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")

	assert.Equal(t, report.ID, rm.Report.ID)
	assert.Len(t, rm.Report.CZI, 360)
	assert.Len(t, rm.Report.MCZI, 360)
	assert.Len(t, rm.Report.Composite, 360)
	require.NotNil(t, rm.Report.Comparison)
	assert.Equal(t, 359, rm.Report.Comparison.Summary.Compared)
}

// TestPipelineEndToEnd wires the full pipeline (Reader → Transformer → Writer)
// with real Kafka and verifies one report per station at the requested scale.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-pipeline")

	base := loadMockData(t)
	scales := map[string]int{"monthly": 360, "seasonal": 121, "annual": 30}

	msgs := make([]kafkago.Message, 0, len(scales))
	for scale := range scales {
		req := base
		req.StationID = "ST-" + scale
		req.Scale = scale
		payload, err := json.Marshal(req)
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{Key: []byte(req.StationID), Value: payload})
	}
	require.NoError(t, sourceProducer(t, broker).WriteMessages(ctx, msgs...))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	transformer := pipeline.NewTransformer(defaultOptions, metrics, discardLogger())
	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	received := make(map[string]reportMessage, len(scales))
	for len(received) < len(scales) {
		rm := readReport(ctx, t, consumer)
		received[rm.Key] = rm
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	for scale, periods := range scales {
		rm, ok := received["ST-"+scale]
		require.True(t, ok, "missing report for %s", scale)
		assert.Equal(t, scale, rm.Headers["scale"])
		assert.Equal(t, domain.Scale(scale), rm.Report.Scale)
		assert.Len(t, rm.Report.CZI, periods)
		assert.Len(t, rm.Report.MCZI, periods)
		if scale == "monthly" {
			assert.Len(t, rm.Report.Composite, periods)
		} else {
			assert.Empty(t, rm.Report.Composite, "composite is monthly only")
		}
	}
	assert.NoError(t, p.CheckReadiness(ctx))
}

// TestPipelineTransformError verifies that invalid messages (poison pills) are
// skipped and the pipeline continues processing valid messages.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-poison")

	valid := loadMockData(t)
	validPayload, err := json.Marshal(valid)
	require.NoError(t, err)

	badMonth := `{"station_id":"BAD","observations":[{"year":2000,"month":13,"precipitation":1}]}`
	require.NoError(t, sourceProducer(t, broker).WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("BAD"), Value: []byte(badMonth)},
		kafkago.Message{Key: []byte(valid.StationID), Value: validPayload},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	transformer := pipeline.NewTransformer(defaultOptions, metrics, discardLogger())
	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	rm := readReport(ctx, t, consumer)
	assert.Equal(t, valid.StationID, rm.Key)

	// Verify no second message arrives (the poison pills were skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
