package tele

import (
	"github.com/temoto/hrv2mqtt/log2"
	tele_config "github.com/temoto/hrv2mqtt/tele/config"
)

// Transporter is the message broker capability consumed by the
// supervisor. Production implementation is MQTT, tests use a mock.
type Transporter interface {
	Init(log *log2.Log, config tele_config.Config, willTopic string, willPayload []byte) error
	Connect() bool
	Publish(topic, payload string) bool
	// Poll services the session. Must be invoked regularly.
	Poll()
	IsConnected() bool
	Close()
}
