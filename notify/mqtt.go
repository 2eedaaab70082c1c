package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const (
	mqttConnectTimeout = 5 * time.Second
	mqttPublishTimeout = 2 * time.Second
)

// MQTTEmitter publishes notifications as JSON to a broker topic.
type MQTTEmitter struct {
	Client mqtt.Client
	Topic  string
	QoS    byte

	mu        sync.Mutex
	published uint64
	errors    uint64
}

// DialMQTT connects to broker, given as host:port or a full URL.
func DialMQTT(broker, topic string) (*MQTTEmitter, error) {
	if broker == "" {
		return nil, fmt.Errorf("no mqtt broker")
	}
	host, _ := os.Hostname()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(broker))
	opts.SetClientID(fmt.Sprintf("ssdcam-%s-%d", host, os.Getpid()))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(c mqtt.Client) {
		log.WithField("broker", broker).Infof("MQTT connection established")
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		log.WithField("broker", broker).Warnf("MQTT connection lost, will reconnect: %v", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("mqtt connection to %v timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}
	return &MQTTEmitter{Client: client, Topic: topic}, nil
}

func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}

func (e *MQTTEmitter) Name() string {
	return "mqtt"
}

func (e *MQTTEmitter) Notify(n *Notification) error {
	if !e.Client.IsConnected() {
		e.failed()
		return fmt.Errorf("mqtt not connected")
	}
	payload, err := json.Marshal(n)
	if err != nil {
		e.failed()
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	token := e.Client.Publish(e.Topic, e.QoS, false, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		e.failed()
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		e.failed()
		return fmt.Errorf("publish failed: %w", err)
	}

	e.mu.Lock()
	e.published++
	e.mu.Unlock()
	log.WithField("topic", e.Topic).Debugf("Published %d byte notification", len(payload))
	return nil
}

func (e *MQTTEmitter) failed() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errors++
}

// Stats returns the number of published and failed notifications.
func (e *MQTTEmitter) Stats() (published, errors uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.published, e.errors
}

func (e *MQTTEmitter) Close() {
	if e.Client.IsConnected() {
		e.Client.Disconnect(250)
		log.Infof("MQTT disconnected")
	}
}
