package tele

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialLink(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	lk := &dialLink{addr: ln.Addr().String(), timeout: time.Second}
	assert.True(t, lk.Up())

	ln.Close()
	assert.False(t, lk.Up())
}

func TestDialLinkStop(t *testing.T) {
	t.Parallel()

	stop := make(chan struct{})
	close(stop)
	// unroutable per RFC 5737, the dial would hang until timeout
	lk := &dialLink{addr: "192.0.2.1:1", timeout: time.Minute, stop: stop}
	begin := time.Now()
	assert.False(t, lk.Up())
	assert.WithinDuration(t, begin, time.Now(), time.Second)
}
