package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/banshee-data/tactile/internal/config"
)

// options is the parsed command line.
type options struct {
	configPath  string
	listPorts   bool
	dev         bool
	verbose     bool
	showVersion bool

	// cfg is the config file overlaid with any flags given explicitly.
	cfg *config.Config
}

// parseArgs parses args, loads the -config file if one is named and
// overlays every flag that was set on the command line.
func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("tactile", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "Path to a JSON config file")
	fs.BoolVar(&o.listPorts, "list-ports", false, "List serial ports and exit")
	fs.BoolVar(&o.dev, "dev", false, "Run against a simulated sensor board")
	fs.BoolVar(&o.verbose, "verbose", false, "Log every rejected serial line")
	fs.BoolVar(&o.showVersion, "version", false, "Print version information and exit")

	port := fs.String("port", config.DefaultPort, "Serial port to use (ignored in dev mode, empty disables input)")
	baud := fs.Int("baud", config.DefaultBaudRate, "Serial baud rate")
	readTimeout := fs.Duration("read-timeout", config.DefaultReadTimeout, "Serial read timeout")
	rows := fs.Int("rows", config.DefaultRows, "Sensor rows")
	cols := fs.Int("cols", config.DefaultCols, "Readings per row")
	period := fs.Duration("period", config.DefaultRefreshPeriod, "Refresh period")
	vmin := fs.Int("vmin", config.DefaultDisplayMin, "Bottom of the colour scale and line plot axis")
	vmax := fs.Int("vmax", config.DefaultDisplayMax, "Top of the colour scale and line plot axis")
	acquisition := fs.String("acquisition", config.DefaultAcquisition, `Acquisition mode: "background" or "inline"`)
	distinct := fs.Bool("distinct-rows", false, "Complete a sweep only once every row has been seen")
	maxRetries := fs.Int("max-retries", 0, "Consecutive serial failures before a sweep fails (0 retries forever)")
	listen := fs.String("listen", config.DefaultListen, "Web listen address (empty disables the web UI)")
	tuiMode := fs.String("tui", config.DefaultTUI, `Terminal UI: "auto", "on" or "off"`)
	logFile := fs.String("log-file", config.DefaultLogFile, "Log file used while the terminal UI is active")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	o.cfg = config.Default()
	if o.configPath != "" {
		cfg, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		o.cfg = cfg
	}

	durationString := func(d time.Duration) *string {
		s := d.String()
		return &s
	}

	cfg := o.cfg
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = port
		case "baud":
			cfg.BaudRate = baud
		case "read-timeout":
			cfg.ReadTimeout = durationString(*readTimeout)
		case "rows":
			cfg.Rows = rows
		case "cols":
			cfg.Cols = cols
		case "period":
			cfg.RefreshPeriod = durationString(*period)
		case "vmin":
			cfg.DisplayMin = vmin
		case "vmax":
			cfg.DisplayMax = vmax
		case "acquisition":
			cfg.Acquisition = acquisition
		case "distinct-rows":
			cfg.CountDistinctRows = distinct
		case "max-retries":
			cfg.MaxRetries = maxRetries
		case "listen":
			cfg.Listen = listen
		case "tui":
			cfg.TUI = tuiMode
		case "log-file":
			cfg.LogFile = logFile
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return o, nil
}
