// Package connectors adapts streaming transports (Kafka, MQTT) into
// model.Source, so the classifier can scan a live topic the same way it
// scans a file: by pulling one record at a time.
package connectors

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/apicrafter/metacrafter/classifier/model"
)

// KafkaSource reads JSON-object messages off a topic and yields each as
// a Record. It is bounded: construct it with a maxMessages cap so a
// scan over a live topic terminates rather than blocking forever on an
// idle partition, matching the core's "iterator exhaustion or limit"
// termination contract.
type KafkaSource struct {
	reader      *kafka.Reader
	ctx         context.Context
	maxMessages int
	seen        int
}

// NewKafkaSource opens a consumer for topic on the given brokers, using
// groupID so multiple scanner instances can split a topic's partitions.
func NewKafkaSource(ctx context.Context, brokers []string, topic, groupID string, maxMessages int) *KafkaSource {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	return &KafkaSource{reader: reader, ctx: ctx, maxMessages: maxMessages}
}

// Next blocks until the next message arrives, the context is
// cancelled, or maxMessages has been reached.
func (s *KafkaSource) Next() (model.Record, bool) {
	for {
		if s.maxMessages > 0 && s.seen >= s.maxMessages {
			return model.Record{}, false
		}
		msg, err := s.reader.ReadMessage(s.ctx)
		if err != nil {
			if s.ctx.Err() == nil {
				slog.Warn("kafka source read error", "error", err)
			}
			return model.Record{}, false
		}
		s.seen++

		order, row, err := model.DecodeOrderedJSONObject(msg.Value)
		if err != nil {
			slog.Warn("kafka source: message is not a JSON object, skipping", "error", err)
			continue
		}
		return model.NewRecord(order, row), true
	}
}

// Close releases the underlying consumer connection.
func (s *KafkaSource) Close() error {
	return s.reader.Close()
}
