// Command iolinkd is the host daemon: it opens the serial link to the I/O
// board, reconciles output/input state against it, and publishes an HTTP
// RPC surface for callers (spec.md §6, §9).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/boardlink/iolinkd/host"
	"github.com/boardlink/iolinkd/rpcsvc"
	"github.com/boardlink/iolinkd/serialport"
)

func main() {
	app := &cli.App{
		Name:      "iolinkd",
		Usage:     "host daemon for the I/O board serial link",
		ArgsUsage: "<serial-device-path>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Value: ":8080",
				Usage: "HTTP listen address for the RPC surface",
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
	device := c.Args().First()
	if device == "" {
		return cli.Exit("serial device path is required", 1)
	}

	logger, err := newLogger(c.Bool("debug"))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	conn, err := serialport.Open(device)
	if err != nil {
		return fmt.Errorf("open serial device: %w", err)
	}
	defer conn.Close()

	link := host.New(conn, log)
	srv := rpcsvc.New(link, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		errCh <- link.Run(ctx)
	}()
	go func() {
		err := srv.Run(ctx, c.String("listen"))
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	log.Infow("iolinkd started", "device", device, "listen", c.String("listen"))
	err = <-errCh
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
