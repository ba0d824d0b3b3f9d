// Command iolinkdevice is the device-side peer: it drives device.State's
// tick loop against a hardware abstraction (real GPIO or an in-memory
// simulator) and exchanges protocol bytes with the host daemon over a
// serial link (spec.md §1, §9; SPEC_FULL.md §4.9).
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/boardlink/iolinkd/device"
	"github.com/boardlink/iolinkd/devicehal"
	"github.com/boardlink/iolinkd/serialport"
	"github.com/boardlink/iolinkd/wire"
)

func main() {
	app := &cli.App{
		Name:  "iolinkdevice",
		Usage: "device-side peer driving the I/O board's protocol state machine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "device",
				Aliases:  []string{"d"},
				Usage:    "serial device path the host daemon connects to",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "simulate",
				Usage: "use an in-memory HAL instead of real GPIO lines",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug-level logging",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logger, err := newLogger(c.Bool("debug"))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	hal, err := buildHAL(c.Bool("simulate"))
	if err != nil {
		return fmt.Errorf("build hardware abstraction: %w", err)
	}

	conn, err := serialport.Open(c.String("device"))
	if err != nil {
		return fmt.Errorf("open serial device: %w", err)
	}
	defer conn.Close()

	s := device.New(hal)
	s.OnWatchdogObserved(func(sub int) {
		log.Debugw("watchdog subcommand observed", "sub", sub)
	})

	rx := make(chan byte, 64)
	go func() {
		r := bufio.NewReaderSize(conn, 1)
		for {
			b, err := r.ReadByte()
			if err != nil {
				if err != io.EOF {
					log.Errorw("serial read failed", "error", err)
				}
				close(rx)
				return
			}
			rx <- b
		}
	}()

	ticker := time.NewTicker(device.TickInterval)
	defer ticker.Stop()

	write := func(f wire.Frame) {
		if _, err := conn.Write([]byte{byte(f)}); err != nil {
			log.Errorw("serial write failed", "error", err)
		}
	}

	log.Infow("iolinkdevice started", "device", c.String("device"), "simulate", c.Bool("simulate"))
	for {
		select {
		case b, ok := <-rx:
			if !ok {
				return fmt.Errorf("serial connection closed")
			}
			for _, f := range s.HandleByte(b) {
				write(f)
			}
		case <-ticker.C:
			for _, f := range s.Tick() {
				write(f)
			}
			for {
				f, ok := s.NextFrame()
				if !ok {
					break
				}
				write(f)
			}
		}
	}
}

func buildHAL(simulate bool) (devicehal.HAL, error) {
	if simulate {
		return devicehal.NewMemory(), nil
	}
	return newPeriphHAL()
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
