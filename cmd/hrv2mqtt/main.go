// hrv2mqtt reads the HRV ventilation unit serial protocol and
// republishes changed readings to MQTT.
//
// One cooperative loop in fixed order: ensure connectivity, drain
// pending serial bytes through the decoder, periodic housekeeping.
// Decoder and supervisor are only ever touched from this loop.
package main

import (
	"flag"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/hrv2mqtt/helpers"
	"github.com/temoto/hrv2mqtt/hrv"
	"github.com/temoto/hrv2mqtt/log2"
	"github.com/temoto/hrv2mqtt/state"
	"github.com/temoto/hrv2mqtt/tele"
	"github.com/temoto/hrv2mqtt/uart"
)

var BuildVersion string = "unknown" // set by ldflags

const idleTick = 100 * time.Millisecond

func main() {
	flagConfig := flag.String("config", "hrv2mqtt.hcl", "")
	flag.Parse()

	log := log2.NewStderr(log2.LInfo)
	if sdnotify(log, "STATUS=starting") {
		// under systemd journal logging, remove timestamp
		log.SetFlags(log2.LServiceFlags)
	} else {
		log.SetFlags(log2.LInteractiveFlags)
	}
	log.Infof("hrv2mqtt version=%s", BuildVersion)

	config := state.MustReadConfigFile(*flagConfig, log)
	if config.Tele.LogDebug {
		log.SetLevel(log2.LDebug)
	}

	a := alive.NewAlive()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		a.Stop()
	}()

	port := new(uart.Port)
	if err := port.Open(config.Hardware.Uart.Device, config.Hardware.Uart.Baud); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	defer port.Close()

	yield := func() { sdnotify(nil, daemon.SdNotifyWatchdog) }
	sup := new(tele.Tele)
	if err := sup.Init(log, config.Tele, a.StopChan(), yield); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	defer sup.Close()

	sdnotify(log, daemon.SdNotifyReady)
	log.Infof("init complete, running")

	decoder := new(hrv.Decoder)
	last := time.Now()
	for a.IsRunning() {
		if err := sup.EnsureConnected(); err != nil {
			// the network stack is not locally recoverable,
			// exit and let systemd restart the whole process
			log.Fatal(errors.ErrorStack(err))
		}
		drain(log, port, decoder, sup)
		now := time.Now()
		sup.Tick(now.Sub(last))
		last = now
		helpers.SleepYield(idleTick, idleTick, a.StopChan(), yield)
	}

	log.Infof("stopping")
	a.Stop()
	a.Wait()
}

// drain feeds all currently pending serial bytes into the decoder and
// forwards validated frames. Returns when the line goes silent.
func drain(log *log2.Log, port *uart.Port, decoder *hrv.Decoder, sup *tele.Tele) {
	for {
		b, ok, err := port.TryReadByte()
		if err != nil {
			log.Errorf("uart: %v", err)
			return
		}
		if !ok {
			return
		}
		frame, err := decoder.Feed(b)
		if err != nil {
			// transient decode errors recover by resync on next marker
			log.Debugf("hrv: %v", err)
			if _, mismatch := err.(hrv.InvalidChecksum); mismatch {
				// rest of the broken frame is garbage, drop it
				if err = port.Flush(); err != nil {
					log.Errorf("uart flush: %v", err)
				}
			}
			continue
		}
		if frame != nil {
			log.Debugf("hrv: %s", frame)
			sup.OnFrame(frame)
		}
	}
}

func sdnotify(log *log2.Log, s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		if log != nil {
			log.Errorf("sdnotify: %v", err)
		} else {
			stdlog.Printf("sdnotify: %v", err)
		}
	}
	return ok
}
