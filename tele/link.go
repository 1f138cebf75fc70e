package tele

import (
	"net"
	"time"
)

type LinkState int32

const (
	LinkDisconnected LinkState = iota
	LinkNetworkConnecting
	LinkNetworkUp
	LinkBrokerConnecting
	LinkBrokerUp
)

func (s LinkState) String() string {
	switch s {
	case LinkDisconnected:
		return "disconnected"
	case LinkNetworkConnecting:
		return "network-connecting"
	case LinkNetworkUp:
		return "network-up"
	case LinkBrokerConnecting:
		return "broker-connecting"
	case LinkBrokerUp:
		return "broker-up"
	}
	return "invalid"
}

// NetworkLink reports whether there is a network to talk over.
// Association itself belongs to the OS, Connect only kicks it.
type NetworkLink interface {
	Connect() error
	Up() bool
}

// dialLink judges the link by dialing a probe address.
// Simplest reliable signal on this class of hardware: if the broker
// host does not accept TCP, the broker session is doomed anyway.
type dialLink struct {
	addr    string
	timeout time.Duration
	stop    <-chan struct{}
	yield   func()
}

func (self *dialLink) Connect() error { return nil }

// Up dials in the background and waits in short ticks, the dial
// itself may hang up to timeout and must not hold the watchdog back.
func (self *dialLink) Up() bool {
	result := make(chan bool, 1)
	go func() {
		conn, err := net.DialTimeout("tcp", self.addr, self.timeout)
		if err == nil {
			conn.Close()
		}
		result <- err == nil
	}()
	for {
		select {
		case up := <-result:
			return up
		case <-self.stop:
			return false
		case <-time.After(yieldTick):
			if self.yield != nil {
				self.yield()
			}
		}
	}
}
