package connectors

import (
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/apicrafter/metacrafter/classifier/model"
)

// MQTTSource subscribes to a topic and buffers incoming JSON-object
// payloads for Next to drain. Unlike KafkaSource's synchronous read,
// paho's client delivers messages to a callback, so this type owns a
// small buffered channel between the subscription and the scanner.
type MQTTSource struct {
	client      mqtt.Client
	messages    chan []byte
	maxMessages int
	seen        int
	readTimeout time.Duration
}

// NewMQTTSource connects to broker and subscribes to topic with the
// given QoS. maxMessages bounds the scan the same way it does for
// KafkaSource; readTimeout bounds how long Next waits for the next
// message before reporting exhaustion on an idle topic.
func NewMQTTSource(broker, clientID, topic string, qos byte, maxMessages int, readTimeout time.Duration) (*MQTTSource, error) {
	s := &MQTTSource{
		messages:    make(chan []byte, 256),
		maxMessages: maxMessages,
		readTimeout: readTimeout,
	}

	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	opts.SetDefaultPublishHandler(func(c mqtt.Client, msg mqtt.Message) {
		select {
		case s.messages <- msg.Payload():
		default:
			slog.Warn("mqtt source: buffer full, dropping message", "topic", msg.Topic())
		}
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	if token := client.Subscribe(topic, qos, nil); token.Wait() && token.Error() != nil {
		client.Disconnect(250)
		return nil, token.Error()
	}
	s.client = client
	return s, nil
}

// Next blocks for up to readTimeout for the next message.
func (s *MQTTSource) Next() (model.Record, bool) {
	for {
		if s.maxMessages > 0 && s.seen >= s.maxMessages {
			return model.Record{}, false
		}
		select {
		case payload := <-s.messages:
			s.seen++
			order, row, err := model.DecodeOrderedJSONObject(payload)
			if err != nil {
				slog.Warn("mqtt source: payload is not a JSON object, skipping", "error", err)
				continue
			}
			return model.NewRecord(order, row), true
		case <-time.After(s.readTimeout):
			return model.Record{}, false
		}
	}
}

// Close disconnects the MQTT client.
func (s *MQTTSource) Close() {
	s.client.Disconnect(250)
}
