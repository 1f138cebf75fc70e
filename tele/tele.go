// Package tele keeps the broker link alive and republishes changed
// HRV readings.
//
// Contract:
// - Init() fails only with invalid config, network issues are retried
// - EnsureConnected() blocks until the link is up, yielding between
//   retry ticks; the only fatal outcome is ErrNetworkDead
// - OnFrame()/Tick() never block on a dead link, they drop work
package tele

import (
	"strconv"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/atomic_clock"
	"github.com/temoto/hrv2mqtt/helpers"
	"github.com/temoto/hrv2mqtt/hrv"
	"github.com/temoto/hrv2mqtt/log2"
	tele_config "github.com/temoto/hrv2mqtt/tele/config"
)

const (
	defaultAliveInterval  = 30 * time.Second
	defaultNetworkTimeout = 5 * time.Second
	defaultProbeInterval  = 10 * time.Second
	defaultTopicPrefix    = "hrv"

	// ~15 minutes of polling before declaring the network stack dead
	networkRetryBudget = 450
	networkRetryDelay  = 2 * time.Second

	brokerRetryBudget = 6

	// waits are broken into short ticks with a cooperative yield
	// between them, long uninterrupted sleeps starve the watchdog
	yieldTick = 250 * time.Millisecond

	statusOnline  = "online"
	statusOffline = "offline"
)

// The network stack is not locally recoverable once the retry budget
// is spent. The only remedy is a full process restart.
var ErrNetworkDead = errors.New("tele: network retry budget exhausted")

type Tele struct { //nolint:maligned
	log       *log2.Log
	config    tele_config.Config
	link      NetworkLink // test code sets .link
	transport Transporter // test code sets .transport
	stopCh    <-chan struct{}
	yield     func()

	state LinkState
	pub   PublishedState

	networkBudget int
	networkDelay  time.Duration
	brokerBackoff helpers.Backoff
	probeInterval time.Duration
	lastProbe     atomic_clock.Clock

	aliveInterval time.Duration
	aliveAcc      time.Duration

	topicStatus  string
	topicRoof    string
	topicHouse   string
	topicControl string
	topicFan     string
}

// stop and yield come from the owning control loop: stop aborts waits,
// yield is called between wait ticks (watchdog ping). Both may be nil.
func (self *Tele) Init(log *log2.Log, teleConfig tele_config.Config, stop <-chan struct{}, yield func()) error {
	self.log = log.Clone(log2.LInfo)
	if teleConfig.LogDebug {
		self.log.SetLevel(log2.LDebug)
	}
	self.config = teleConfig
	self.stopCh = stop
	self.yield = yield
	self.state = LinkDisconnected

	prefix := teleConfig.TopicPrefix
	if prefix == "" {
		prefix = defaultTopicPrefix
	}
	self.topicStatus = prefix + "/status"
	self.topicRoof = prefix + "/temperature/roof"
	self.topicHouse = prefix + "/temperature/house"
	self.topicControl = prefix + "/temperature/control"
	self.topicFan = prefix + "/fan"

	if self.networkBudget == 0 {
		self.networkBudget = networkRetryBudget
	}
	if self.networkDelay == 0 {
		self.networkDelay = networkRetryDelay
	}
	if self.brokerBackoff.K == 0 {
		self.brokerBackoff = helpers.Backoff{
			Min: 1 * time.Second, Max: 8 * time.Second, K: 2,
			Budget: brokerRetryBudget,
		}
	}
	if self.probeInterval == 0 {
		self.probeInterval = helpers.IntSecondDefault(teleConfig.ProbeIntervalSec, defaultProbeInterval)
	}
	self.aliveInterval = helpers.IntSecondDefault(teleConfig.AliveIntervalSec, defaultAliveInterval)

	if self.link == nil { // production path
		if teleConfig.NetworkProbe == "" {
			return errors.New("tele: config network_probe is required")
		}
		dialTimeout := helpers.IntSecondDefault(teleConfig.NetworkTimeoutSec, defaultNetworkTimeout)
		if dialTimeout > self.networkDelay {
			// a dial slower than the retry interval would stretch the
			// network retry budget far past its intended wall time
			dialTimeout = self.networkDelay
		}
		self.link = &dialLink{
			addr:    teleConfig.NetworkProbe,
			timeout: dialTimeout,
			stop:    stop,
			yield:   yield,
		}
	}
	if self.transport == nil { // production path
		self.transport = new(transportMqtt)
	}
	if err := self.transport.Init(self.log, teleConfig, self.topicStatus, []byte(statusOffline)); err != nil {
		return errors.Annotate(err, "tele transport")
	}
	return nil
}

func (self *Tele) State() LinkState { return self.state }

func (self *Tele) Close() {
	if self.transport != nil {
		self.transport.Close()
	}
}

// EnsureConnected drives the link to broker-up. Returns nil either on
// success or when the control loop is stopping; ErrNetworkDead means
// restart the process.
func (self *Tele) EnsureConnected() error {
	for self.running() {
		switch self.state {
		case LinkBrokerUp:
			if !self.transport.IsConnected() {
				self.log.Errorf("tele: broker session lost")
				self.transition(LinkDisconnected)
				break
			}
			// the dial probe is expensive, steady state trusts the
			// broker session and re-dials at most once per interval
			if atomic_clock.Since(&self.lastProbe) < self.probeInterval {
				return nil
			}
			self.lastProbe.SetNow()
			if !self.link.Up() {
				self.log.Errorf("tele: link lost")
				self.transition(LinkDisconnected)
				break
			}
			return nil

		case LinkDisconnected:
			self.transition(LinkNetworkConnecting)

		case LinkNetworkConnecting:
			ok, err := self.waitNetwork()
			if err != nil {
				return err
			}
			if !ok {
				return nil // stopping
			}
			self.transition(LinkNetworkUp)

		case LinkNetworkUp:
			self.transition(LinkBrokerConnecting)

		case LinkBrokerConnecting:
			if !self.connectBroker() {
				self.transition(LinkNetworkConnecting)
				break
			}
			// remote subscriber state is unknown after reconnect,
			// rearm unconditional publish on every channel
			self.pub.Reset()
			self.aliveAcc = 0
			self.lastProbe.SetNow()
			self.transition(LinkBrokerUp)
			self.publish(self.topicStatus, statusOnline)
		}
	}
	return nil
}

// Bounded poll until the network link is up.
// ok=false means the control loop is stopping.
func (self *Tele) waitNetwork() (ok bool, err error) {
	if err = self.link.Connect(); err != nil {
		self.log.Errorf("tele: network connect err=%v", err)
	}
	for attempt := 1; attempt <= self.networkBudget; attempt++ {
		begin := time.Now()
		if self.link.Up() {
			self.log.Debugf("tele: network up after attempt=%d", attempt)
			return true, nil
		}
		// dial time counts against the interval, attempts stay on a
		// fixed cadence and the budget keeps its wall time meaning
		if !self.sleep(self.networkDelay - time.Since(begin)) {
			return false, nil
		}
	}
	self.log.Errorf("tele: network still down after %d attempts", self.networkBudget)
	return false, ErrNetworkDead
}

// Bounded broker session retries with backoff. Bails out early when
// the network link drops, retrying a session over a dead network is
// pointless.
func (self *Tele) connectBroker() bool {
	self.brokerBackoff.Reset()
	for self.running() {
		if !self.link.Up() {
			self.log.Errorf("tele: network dropped during broker connect")
			return false
		}
		if self.transport.Connect() {
			return true
		}
		self.brokerBackoff.Failure()
		if self.brokerBackoff.Spent() {
			return false
		}
		if !self.sleep(self.brokerBackoff.Delay()) {
			return false
		}
	}
	return false
}

// OnFrame applies the change-detection publish policy to one decoded
// frame. Frames arriving while the link is down are dropped, the unit
// repeats readings continuously.
func (self *Tele) OnFrame(frame *hrv.Frame) {
	if self.state != LinkBrokerUp {
		self.log.Debugf("tele: link %s, drop %s", self.state, frame)
		return
	}
	temp := roundHalf(frame.Temp())
	switch frame.Location {
	case hrv.LocationRoof:
		self.publishRoof(temp)
	case hrv.LocationHouse:
		if !self.publishHouse(temp) {
			return
		}
		if !self.publishControl(frame.ControlTemp) {
			return
		}
		self.publishFan(frame.FanSpeed)
	}
}

// Tick services periodic housekeeping: broker session polling and the
// liveness signal, once per ~30s of accumulated elapsed time.
func (self *Tele) Tick(elapsed time.Duration) {
	self.transport.Poll()
	if self.state != LinkBrokerUp {
		return
	}
	self.aliveAcc += elapsed
	if self.aliveAcc >= self.aliveInterval {
		self.aliveAcc = 0
		self.publish(self.topicStatus, statusOnline)
	}
}

func (self *Tele) publishRoof(temp float64) bool {
	if self.pub.hasRoof && self.pub.roofTemp == temp {
		return true
	}
	if !self.publish(self.topicRoof, formatTemp(temp)) {
		return false
	}
	self.pub.roofTemp = temp
	self.pub.hasRoof = true
	self.pub.fanDirty = true
	return true
}

func (self *Tele) publishHouse(temp float64) bool {
	if self.pub.hasHouse && self.pub.houseTemp == temp {
		return true
	}
	if !self.publish(self.topicHouse, formatTemp(temp)) {
		return false
	}
	self.pub.houseTemp = temp
	self.pub.hasHouse = true
	self.pub.fanDirty = true
	return true
}

func (self *Tele) publishControl(controlTemp int) bool {
	if self.pub.hasControl && self.pub.controlTemp == controlTemp {
		return true
	}
	if !self.publish(self.topicControl, strconv.Itoa(controlTemp)) {
		return false
	}
	self.pub.controlTemp = controlTemp
	self.pub.hasControl = true
	self.pub.fanDirty = true
	return true
}

func (self *Tele) publishFan(speed int) bool {
	if self.pub.hasFan && self.pub.fanSpeed == speed && !self.pub.fanDirty {
		return true
	}
	if !self.publish(self.topicFan, self.pub.fanStatus(speed)) {
		return false
	}
	self.pub.fanSpeed = speed
	self.pub.hasFan = true
	self.pub.fanDirty = false
	return true
}

func (self *Tele) publish(topic, payload string) bool {
	if self.transport.Publish(topic, payload) {
		self.log.Debugf("tele: publish %s %s", topic, payload)
		return true
	}
	// send error collapses directly to the top of the state machine
	self.log.Errorf("tele: publish failed topic=%s", topic)
	self.transition(LinkDisconnected)
	return false
}

func (self *Tele) transition(next LinkState) {
	if self.state == next {
		return
	}
	self.log.Infof("tele: link %s -> %s", self.state, next)
	self.state = next
}

func (self *Tele) running() bool {
	if self.stopCh == nil {
		return true
	}
	select {
	case <-self.stopCh:
		return false
	default:
		return true
	}
}

func (self *Tele) sleep(d time.Duration) bool {
	return helpers.SleepYield(d, yieldTick, self.stopCh, self.yield)
}
