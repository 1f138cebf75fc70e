// Separate package is workaround to import cycles.
package tele_config

type Config struct { //nolint:maligned
	ClientId          string `hcl:"client_id"`
	LogDebug          bool   `hcl:"log_debug"`
	KeepaliveSec      int    `hcl:"keepalive_sec"`
	MqttBroker        string `hcl:"mqtt_broker"`
	MqttLogDebug      bool   `hcl:"mqtt_log_debug"`
	MqttPassword      string `hcl:"mqtt_password"` // secret
	NetworkProbe      string `hcl:"network_probe"` // host:port dialed to judge the network link
	NetworkTimeoutSec int    `hcl:"network_timeout_sec"`
	ProbeIntervalSec  int    `hcl:"probe_interval_sec"` // steady-state link re-check cadence
	AliveIntervalSec  int    `hcl:"alive_interval_sec"`
	TopicPrefix       string `hcl:"topic_prefix"`
	TlsCaFile         string `hcl:"tls_ca_file"`
	TlsPsk            string `hcl:"tls_psk"` // secret
}
