package tele

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"io/ioutil"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/temoto/hrv2mqtt/helpers"
	"github.com/temoto/hrv2mqtt/log2"
	tele_config "github.com/temoto/hrv2mqtt/tele/config"
)

const defaultClientId = "hrv2mqtt"

type transportMqtt struct {
	log  *log2.Log
	m    mqtt.Client
	mopt *mqtt.ClientOptions
}

func (self *transportMqtt) Init(log *log2.Log, teleConfig tele_config.Config, willTopic string, willPayload []byte) error {
	self.log = log
	mqttLog := self.log.Clone(log2.LDebug)
	mqtt.CRITICAL = mqttLog
	mqtt.ERROR = mqttLog
	mqtt.WARN = mqttLog
	if teleConfig.MqttLogDebug {
		mqtt.DEBUG = mqttLog
	}

	mqttClientId := teleConfig.ClientId
	if mqttClientId == "" {
		mqttClientId = defaultClientId
	}
	credFun := func() (string, string) {
		return mqttClientId, teleConfig.MqttPassword
	}

	networkTimeout := helpers.IntSecondDefault(teleConfig.NetworkTimeoutSec, defaultNetworkTimeout)
	if networkTimeout < 1*time.Second {
		networkTimeout = 1 * time.Second
	}
	connectTimeout := networkTimeout * 3
	keepaliveTimeout := helpers.IntSecondDefault(teleConfig.KeepaliveSec, networkTimeout/2)

	tlsconf := new(tls.Config)
	if teleConfig.TlsCaFile != "" {
		tlsconf.RootCAs = x509.NewCertPool()
		cabytes, err := ioutil.ReadFile(teleConfig.TlsCaFile)
		if err != nil {
			return errors.Annotate(err, "tls_ca_file")
		}
		tlsconf.RootCAs.AppendCertsFromPEM(cabytes)
	}
	if teleConfig.TlsPsk != "" {
		psk, err := hex.DecodeString(teleConfig.TlsPsk)
		if err != nil {
			return errors.Annotate(err, "tls_psk")
		}
		copy(tlsconf.SessionTicketKey[:], psk)
	}

	// reconnect decisions belong to the supervisor, not the client library
	self.mopt = mqtt.NewClientOptions().
		AddBroker(teleConfig.MqttBroker).
		SetAutoReconnect(false).
		SetBinaryWill(willTopic, willPayload, 1, true).
		SetCleanSession(true).
		SetClientID(mqttClientId).
		SetConnectTimeout(connectTimeout).
		SetCredentialsProvider(credFun).
		SetKeepAlive(keepaliveTimeout).
		SetOrderMatters(false).
		SetPingTimeout(networkTimeout).
		SetTLSConfig(tlsconf).
		SetWriteTimeout(networkTimeout)
	self.m = mqtt.NewClient(self.mopt)
	return nil
}

func (self *transportMqtt) Connect() bool {
	t := self.m.Connect()
	return self.tokenWait(t, "connect") == nil
}

func (self *transportMqtt) Publish(topic, payload string) bool {
	t := self.m.Publish(topic, 1, true, payload)
	return self.tokenWait(t, "publish "+topic) == nil
}

// paho services the session from its own goroutines
func (self *transportMqtt) Poll() {}

func (self *transportMqtt) IsConnected() bool { return self.m.IsConnected() }

func (self *transportMqtt) Close() {
	self.m.Disconnect(uint(self.mopt.PingTimeout / time.Millisecond))
}

func (self *transportMqtt) tokenWait(t mqtt.Token, tag string) error {
	if !t.Wait() {
		err := errors.Errorf("%s timeout", tag)
		self.log.Errorf("tele: MQTT %s", err.Error())
		return err
	}
	if err := t.Error(); err != nil {
		err = errors.Annotate(err, tag)
		self.log.Errorf("tele: MQTT %s", err.Error())
		return err
	}
	return nil
}
