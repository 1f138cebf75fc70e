package uart

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPort(r *bytes.Buffer) *Port {
	p := new(Port)
	p.skip_ioctl = true
	p.r = r
	return p
}

func TestTryReadByte(t *testing.T) {
	t.Parallel()

	p := testPort(bytes.NewBuffer([]byte{0x7e, 0x31}))
	b, ok, err := p.TryReadByte()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, byte(0x7e), b)

	b, ok, err = p.TryReadByte()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, byte(0x31), b)

	_, ok, err = p.TryReadByte()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFlush(t *testing.T) {
	t.Parallel()

	p := testPort(bytes.NewBuffer([]byte{1, 2, 3, 4}))
	require.NoError(t, p.Flush())
	_, ok, err := p.TryReadByte()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenBadBaud(t *testing.T) {
	t.Parallel()

	p := new(Port)
	err := p.Open("/dev/null", 300)
	require.Error(t, err)
}
