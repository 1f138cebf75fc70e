package state

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/hrv2mqtt/log2"
)

func TestReadConfig(t *testing.T) {
	t.Parallel()

	input := `
hardware {
  uart {
    device = "/dev/ttyUSB0"
    baud = 1200
  }
}
tele {
  mqtt_broker = "tcp://broker.lan:1883"
  mqtt_password = "secret"
  client_id = "hrv-attic"
  topic_prefix = "home/hrv"
  alive_interval_sec = 60
}
`
	c, err := ReadConfig(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", c.Hardware.Uart.Device)
	assert.Equal(t, 1200, c.Hardware.Uart.Baud)
	assert.Equal(t, "tcp://broker.lan:1883", c.Tele.MqttBroker)
	assert.Equal(t, "hrv-attic", c.Tele.ClientId)
	assert.Equal(t, "home/hrv", c.Tele.TopicPrefix)
	assert.Equal(t, 60, c.Tele.AliveIntervalSec)
	// probe derived from the broker address
	assert.Equal(t, "broker.lan:1883", c.Tele.NetworkProbe)
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	c, err := ReadConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyAMA0", c.Hardware.Uart.Device)
	assert.Equal(t, 9600, c.Hardware.Uart.Baud)
	assert.Equal(t, "tcp://127.0.0.1:1883", c.Tele.MqttBroker)
	assert.Equal(t, "127.0.0.1:1883", c.Tele.NetworkProbe)
}

func TestConfigFileOptional(t *testing.T) {
	t.Parallel()

	// a stock install runs without a config file
	path := filepath.Join(t.TempDir(), "absent.hcl")
	c, err := ReadConfigFile(path, log2.NewTest(t, log2.LDebug))
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyAMA0", c.Hardware.Uart.Device)
	assert.Equal(t, "tcp://127.0.0.1:1883", c.Tele.MqttBroker)
	assert.Equal(t, "127.0.0.1:1883", c.Tele.NetworkProbe)
}

func TestConfigProbeOverride(t *testing.T) {
	t.Parallel()

	input := `
tele {
  network_probe = "192.168.1.1:53"
}
`
	c, err := ReadConfig(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.1:53", c.Tele.NetworkProbe)
}
