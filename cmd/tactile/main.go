// Command tactile shows a live heatmap of a tactile sensor board read over a
// serial port, in the terminal and in a browser.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/tactile/internal/config"
	"github.com/banshee-data/tactile/internal/dashboard"
	"github.com/banshee-data/tactile/internal/frame"
	"github.com/banshee-data/tactile/internal/monitoring"
	"github.com/banshee-data/tactile/internal/serialmux"
	"github.com/banshee-data/tactile/internal/tui"
	"github.com/banshee-data/tactile/internal/version"
	"github.com/banshee-data/tactile/internal/web"
)

func main() {
	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}
	if err := run(opts, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(o *options, stdout io.Writer) error {
	if o.showVersion {
		fmt.Fprintln(stdout, version.Get())
		return nil
	}
	if o.listPorts {
		ports, err := serialmux.ListPorts()
		if err != nil {
			return fmt.Errorf("list serial ports: %w", err)
		}
		if len(ports) == 0 {
			fmt.Fprintln(stdout, "no serial ports found")
		}
		for _, p := range ports {
			fmt.Fprintln(stdout, p)
		}
		return nil
	}

	cfg := o.cfg
	monitoring.SetVerbose(o.verbose)

	// The terminal UI owns the screen, so logs go to a file while it runs.
	useTUI := tui.Enabled(cfg.GetTUI())
	if useTUI {
		restore, err := redirectLogs(cfg.GetLogFile())
		if err != nil {
			return err
		}
		defer restore()
	}

	src, err := openSource(o.dev, cfg)
	if err != nil {
		return err
	}

	reader := frame.NewReader(src, frame.ReaderConfig{
		Rows:              cfg.GetRows(),
		Cols:              cfg.GetCols(),
		CountDistinctRows: cfg.GetCountDistinctRows(),
		Retry: frame.RetryPolicy{
			MaxRetries:     cfg.GetMaxRetries(),
			InitialBackoff: cfg.GetInitialBackoff(),
			MaxBackoff:     cfg.GetMaxBackoff(),
		},
	})
	dash, err := dashboard.New(dashboard.Config{
		Reader: reader,
		Range:  dashboard.DisplayRange{Min: cfg.GetDisplayMin(), Max: cfg.GetDisplayMax()},
		Period: cfg.GetRefreshPeriod(),
		Mode:   dashboard.Mode(cfg.GetAcquisition()),
	})
	if err != nil {
		src.Close()
		return err
	}
	store := dashboard.NewStore(dash.Rows(), dash.Cols())
	dash.AddSink(store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dash.Run(ctx)
	})

	// Closing the port unblocks a pending read.
	g.Go(func() error {
		<-ctx.Done()
		if err := src.Close(); err != nil {
			monitoring.Logf("close serial port: %v", err)
		}
		return nil
	})

	if addr := cfg.GetListen(); addr != "" {
		srv := web.NewServer(web.Config{
			Address:   addr,
			Dashboard: dash,
			Store:     store,
			Admin:     []web.AdminRouter{src},
		})
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}

	if useTUI {
		g.Go(func() error {
			// Quitting the terminal UI stops everything else.
			defer stop()
			return tui.Run(ctx, store, dash)
		})
	}

	monitoring.Logf("%s: reading %dx%d sweeps", version.Get(), dash.Rows(), dash.Cols())
	return g.Wait()
}

// redirectLogs sends log and monitoring output to the file at path. The
// returned func puts both loggers back before closing the file, so errors
// reported after run returns still reach stderr.
func redirectLogs(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	prevOut, prevLogf := log.Writer(), monitoring.Logf
	log.SetOutput(f)
	monitoring.SetLogger(log.New(f, "", log.LstdFlags).Printf)
	return func() {
		log.SetOutput(prevOut)
		monitoring.SetLogger(prevLogf)
		f.Close()
	}, nil
}

// openSource returns the line source selected by the configuration: a
// simulated board in dev mode, a disabled source when no port is set and
// otherwise the real serial port.
func openSource(dev bool, cfg *config.Config) (serialmux.SerialMuxInterface, error) {
	switch {
	case dev:
		monitoring.Logf("dev mode: simulating a %dx%d sensor board", cfg.GetRows(), cfg.GetCols())
		return serialmux.NewMockSerialMux(cfg.GetRows(), cfg.GetCols(), cfg.GetRefreshPeriod()), nil
	case cfg.GetPort() == "":
		monitoring.Logf("no serial port configured; sensor input disabled")
		return serialmux.NewDisabledSerialMux(), nil
	}

	opts := serialmux.PortOptions{
		BaudRate:    cfg.GetBaudRate(),
		DataBits:    cfg.GetDataBits(),
		StopBits:    cfg.GetStopBits(),
		Parity:      cfg.GetParity(),
		ReadTimeout: cfg.GetReadTimeout(),
	}
	mux, err := serialmux.NewRealSerialMux(cfg.GetPort(), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s (%s): %w", cfg.GetPort(), opts, err)
	}
	monitoring.Logf("opened serial port %s (%s)", cfg.GetPort(), opts)
	return mux, nil
}
