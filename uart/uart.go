// Package uart reads the HRV unit serial line one byte at a time.
package uart

import (
	"io"
	"os"
	"syscall"
	"unsafe"

	"github.com/juju/errors"
	"golang.org/x/sys/unix"
)

const (
	cFIONREAD = 0x541b
	cNCCS     = 19
	cTCFLSH   = 0x540b
	cTCSETSF2 = 0x402c542d

	cTCIFLUSH = 0
)

type cc_t byte
type speed_t uint32
type tcflag_t uint32
type termios2 struct {
	c_iflag  tcflag_t    // input mode flags
	c_oflag  tcflag_t    // output mode flags
	c_cflag  tcflag_t    // control mode flags
	c_lflag  tcflag_t    // local mode flags
	c_line   cc_t        // line discipline
	c_cc     [cNCCS]cc_t // control characters
	c_ispeed speed_t     // input speed
	c_ospeed speed_t     // output speed
}

var bauds = map[int]speed_t{
	1200:   unix.B1200,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
}

// Port is a non-blocking single byte source over a serial line.
// The HRV unit only talks, we only listen.
type Port struct {
	f          *os.File
	r          io.Reader
	t2         termios2
	skip_ioctl bool // for tests
}

func (self *Port) Open(path string, baud int) error {
	speed, ok := bauds[baud]
	if !ok {
		return errors.Errorf("uart: unsupported baud rate %d", baud)
	}
	if self.f != nil {
		self.f.Close()
	}
	f, err := os.OpenFile(path, syscall.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0600)
	if err != nil {
		return errors.Annotatef(err, "uart: open %s", path)
	}
	self.f = f
	self.r = f

	// raw 8N1, VMIN=0 VTIME=0 so reads never block
	self.t2 = termios2{
		c_iflag:  unix.IGNBRK,
		c_cflag:  syscall.CLOCAL | syscall.CREAD | syscall.CS8,
		c_ispeed: speed,
		c_ospeed: speed,
	}
	if err = self.ioctl(uintptr(cTCSETSF2), uintptr(unsafe.Pointer(&self.t2))); err != nil {
		self.f.Close()
		self.f = nil
		self.r = nil
		return errors.Annotatef(err, "uart: termios %s", path)
	}
	return nil
}

// TryReadByte returns the next pending byte, or ok=false when the
// line is currently silent. Never blocks.
func (self *Port) TryReadByte() (b byte, ok bool, err error) {
	if self.skip_ioctl {
		return self.readOne()
	}
	var pending int
	if err = self.ioctl(uintptr(cFIONREAD), uintptr(unsafe.Pointer(&pending))); err != nil {
		return 0, false, err
	}
	if pending == 0 {
		return 0, false, nil
	}
	return self.readOne()
}

func (self *Port) readOne() (byte, bool, error) {
	var one [1]byte
	n, err := self.r.Read(one[:])
	if err == io.EOF {
		return 0, false, nil
	}
	if pe, isPath := err.(*os.PathError); isPath && pe.Err == syscall.EAGAIN {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Annotate(err, "uart: read")
	}
	return one[0], n == 1, nil
}

// Flush discards pending input. Used to resynchronize after a
// checksum mismatch: the tail of a broken frame is garbage.
func (self *Port) Flush() error {
	if self.skip_ioctl {
		// drain the test reader instead
		for {
			if _, ok, err := self.readOne(); err != nil || !ok {
				return err
			}
		}
	}
	return self.ioctl(uintptr(cTCFLSH), uintptr(cTCIFLUSH))
}

func (self *Port) Close() error {
	if self.f == nil {
		return nil
	}
	err := self.f.Close()
	self.f = nil
	self.r = nil
	return err
}

func (self *Port) ioctl(op, arg uintptr) (err error) {
	if self.skip_ioctl {
		return nil
	}
	r, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(self.f.Fd()), op, arg)
	if errno != 0 {
		err = os.NewSyscallError("SYS_IOCTL", errno)
	} else if r != 0 {
		err = errors.New("unknown error from SYS_IOCTL")
	}
	return err
}
