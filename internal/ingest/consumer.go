package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/opl224/fitgo/internal/config"
	"github.com/opl224/fitgo/internal/tracking"
)

const connectTimeout = 10 * time.Second

// Dispatcher routes a decoded fix to its live session.
type Dispatcher interface {
	Dispatch(sessionID string, fix tracking.GeoFix) error
}

// Consumer subscribes to the fix topic and feeds device-published
// positions into the session manager. Topic layout is fitgo/fixes/<sessionID>,
// one JSON fix per message.
type Consumer struct {
	client     mqtt.Client
	topic      string
	dispatcher Dispatcher
}

func NewConsumer(cfg config.Config, dispatcher Dispatcher) *Consumer {
	c := &Consumer{
		topic:      cfg.MQTTFixTopic,
		dispatcher: dispatcher,
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID).
		SetCleanSession(true).
		SetAutoReconnect(true)
	opts.OnConnect = func(client mqtt.Client) {
		if token := client.Subscribe(c.topic, 1, c.handleMessage); token.Wait() && token.Error() != nil {
			log.Printf("ingest: subscribe %s failed: %v", c.topic, token.Error())
		}
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Printf("ingest: connection lost: %v", err)
	}

	c.client = mqtt.NewClient(opts)
	return c
}

// Start connects to the broker. The subscription itself happens in the
// OnConnect hook so it survives reconnects.
func (c *Consumer) Start() error {
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return errors.New("mqtt connect timed out")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

func (c *Consumer) Stop() {
	c.client.Disconnect(250)
}

func (c *Consumer) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	sessionID := sessionIDFromTopic(msg.Topic())
	if sessionID == "" {
		log.Printf("ingest: dropping message on topic %s: no session id", msg.Topic())
		return
	}
	fix, err := decodeFix(msg.Payload())
	if err != nil {
		log.Printf("ingest: dropping fix for %s: %v", sessionID, err)
		return
	}
	if err := c.dispatcher.Dispatch(sessionID, fix); err != nil {
		log.Printf("ingest: fix for %s not delivered: %v", sessionID, err)
	}
}

// sessionIDFromTopic takes the last topic level as the session id.
func sessionIDFromTopic(topic string) string {
	idx := strings.LastIndex(topic, "/")
	if idx < 0 || idx == len(topic)-1 {
		return ""
	}
	return topic[idx+1:]
}

type wireFix struct {
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Altitude    *float64 `json:"altitude"`
	AccuracyM   float64  `json:"accuracy"`
	SpeedMps    float64  `json:"speed"`
	TimestampMs int64    `json:"timestamp"`
}

func decodeFix(payload []byte) (tracking.GeoFix, error) {
	var wire wireFix
	if err := json.Unmarshal(payload, &wire); err != nil {
		return tracking.GeoFix{}, fmt.Errorf("decode fix: %w", err)
	}
	if wire.Latitude == nil || wire.Longitude == nil {
		return tracking.GeoFix{}, errors.New("fix missing coordinates")
	}
	fix := tracking.GeoFix{
		Latitude:    *wire.Latitude,
		Longitude:   *wire.Longitude,
		Altitude:    wire.Altitude,
		AccuracyM:   wire.AccuracyM,
		SpeedMps:    wire.SpeedMps,
		TimestampMs: wire.TimestampMs,
	}
	if fix.TimestampMs == 0 {
		fix.TimestampMs = time.Now().UnixMilli()
	}
	return fix, nil
}
