// Package state aggregates the daemon configuration.
package state

import (
	"io"
	"io/ioutil"
	"net/url"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/hrv2mqtt/log2"
	tele_config "github.com/temoto/hrv2mqtt/tele/config"
)

type Config struct {
	Hardware struct {
		Uart struct {
			Device string `hcl:"device"`
			Baud   int    `hcl:"baud"`
		}
	}
	Tele tele_config.Config
}

func (c *Config) Defaults() {
	if c.Hardware.Uart.Device == "" {
		c.Hardware.Uart.Device = "/dev/ttyAMA0"
	}
	if c.Hardware.Uart.Baud == 0 {
		c.Hardware.Uart.Baud = 9600
	}
	if c.Tele.MqttBroker == "" {
		c.Tele.MqttBroker = "tcp://127.0.0.1:1883"
	}
	if c.Tele.NetworkProbe == "" {
		// broker host doubles as the network liveness probe
		if u, err := url.Parse(c.Tele.MqttBroker); err == nil && u.Host != "" {
			c.Tele.NetworkProbe = u.Host
		}
	}
}

func ReadConfig(r io.Reader) (*Config, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	c := new(Config)
	if err = hcl.Unmarshal(b, c); err != nil {
		return nil, errors.Annotate(err, "config parse")
	}
	c.Defaults()
	return c, nil
}

func ReadConfigFile(path string, log *log2.Log) (*Config, error) {
	if pathAbs, err := filepath.Abs(path); err != nil {
		log.Errorf("filepath.Abs(%s) error=%v", path, err)
	} else {
		path = pathAbs
	}
	log.Debugf("reading config file %s", path)

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		// the config file is optional, compiled-in defaults carry
		// a stock install
		log.Infof("config file %s not found, using defaults", path)
		c := new(Config)
		c.Defaults()
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadConfig(f)
}

func MustReadConfig(r io.Reader, log *log2.Log) *Config {
	c, err := ReadConfig(r)
	if err != nil {
		log.Fatal(err)
	}
	return c
}

func MustReadConfigFile(path string, log *log2.Log) *Config {
	c, err := ReadConfigFile(path, log)
	if err != nil {
		log.Fatal(err)
	}
	return c
}
