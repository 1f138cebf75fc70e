package tele

import (
	"testing"

	"github.com/temoto/hrv2mqtt/log2"
	tele_config "github.com/temoto/hrv2mqtt/tele/config"
)

type mockPublish struct {
	Topic   string
	Payload string
}

type transportMock struct {
	t testing.TB

	connected   bool
	failConnect int  // fail this many Connect calls, then succeed
	failPublish bool // every Publish fails until cleared
	willTopic   string
	willPayload string
	polls       int
	published   []mockPublish
}

func (self *transportMock) Init(log *log2.Log, teleConfig tele_config.Config, willTopic string, willPayload []byte) error {
	self.willTopic = willTopic
	self.willPayload = string(willPayload)
	return nil
}

func (self *transportMock) Connect() bool {
	if self.failConnect > 0 {
		self.failConnect--
		self.t.Logf("mock connect refused")
		return false
	}
	self.connected = true
	return true
}

func (self *transportMock) Publish(topic, payload string) bool {
	if self.failPublish {
		self.t.Logf("mock publish failed topic=%s", topic)
		self.connected = false
		return false
	}
	self.t.Logf("mock publish %s %s", topic, payload)
	self.published = append(self.published, mockPublish{topic, payload})
	return true
}

func (self *transportMock) Poll() { self.polls++ }

func (self *transportMock) IsConnected() bool { return self.connected }

func (self *transportMock) Close() { self.connected = false }

// count publishes on one topic
func (self *transportMock) topicCount(topic string) int {
	n := 0
	for _, p := range self.published {
		if p.Topic == topic {
			n++
		}
	}
	return n
}

func (self *transportMock) lastOn(topic string) (string, bool) {
	for i := len(self.published) - 1; i >= 0; i-- {
		if self.published[i].Topic == topic {
			return self.published[i].Payload, true
		}
	}
	return "", false
}

type linkMock struct {
	up         bool
	upFunc     func() bool // overrides up when set
	connectErr error
	connects   int
}

func (self *linkMock) Connect() error {
	self.connects++
	return self.connectErr
}

func (self *linkMock) Up() bool {
	if self.upFunc != nil {
		return self.upFunc()
	}
	return self.up
}
