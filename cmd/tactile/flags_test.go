package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tactile/internal/config"
	"github.com/banshee-data/tactile/internal/monitoring"
)

func TestParseArgs_Defaults(t *testing.T) {
	var stderr bytes.Buffer
	o, err := parseArgs(nil, &stderr)
	require.NoError(t, err)

	assert.False(t, o.dev)
	assert.False(t, o.listPorts)
	assert.Equal(t, config.DefaultPort, o.cfg.GetPort())
	assert.Equal(t, config.DefaultRows, o.cfg.GetRows())
	assert.Equal(t, config.DefaultCols, o.cfg.GetCols())
	assert.Equal(t, config.DefaultRefreshPeriod, o.cfg.GetRefreshPeriod())
	assert.Equal(t, config.DefaultListen, o.cfg.GetListen())
	assert.Empty(t, stderr.String())
}

func TestParseArgs_FlagsOverride(t *testing.T) {
	o, err := parseArgs([]string{
		"-dev",
		"-port", "/dev/ttyACM1",
		"-baud", "9600",
		"-rows", "8",
		"-cols", "2",
		"-period", "250ms",
		"-vmin", "100",
		"-vmax", "200",
		"-acquisition", "inline",
		"-distinct-rows",
		"-max-retries", "3",
		"-listen", "",
		"-tui", "off",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	cfg := o.cfg
	assert.True(t, o.dev)
	assert.Equal(t, "/dev/ttyACM1", cfg.GetPort())
	assert.Equal(t, 9600, cfg.GetBaudRate())
	assert.Equal(t, 8, cfg.GetRows())
	assert.Equal(t, 2, cfg.GetCols())
	assert.Equal(t, 250*time.Millisecond, cfg.GetRefreshPeriod())
	assert.Equal(t, 100, cfg.GetDisplayMin())
	assert.Equal(t, 200, cfg.GetDisplayMax())
	assert.Equal(t, "inline", cfg.GetAcquisition())
	assert.True(t, cfg.GetCountDistinctRows())
	assert.Equal(t, 3, cfg.GetMaxRetries())
	assert.Equal(t, "", cfg.GetListen())
	assert.Equal(t, "off", cfg.GetTUI())
}

func TestParseArgs_ConfigFileWithOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rows": 12, "cols": 6, "baud_rate": 57600}`), 0644))

	o, err := parseArgs([]string{"-config", path, "-cols", "3"}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, 12, o.cfg.GetRows(), "file value kept")
	assert.Equal(t, 3, o.cfg.GetCols(), "explicit flag wins")
	assert.Equal(t, 57600, o.cfg.GetBaudRate())
	assert.Equal(t, config.DefaultDisplayMax, o.cfg.GetDisplayMax(), "unset everywhere falls back to default")
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad range", []string{"-vmin", "50", "-vmax", "10"}, "invalid configuration"},
		{"zero rows", []string{"-rows", "0"}, "invalid configuration"},
		{"bad mode", []string{"-acquisition", "sometimes"}, "invalid configuration"},
		{"bad tui", []string{"-tui", "maybe"}, "invalid configuration"},
		{"missing config", []string{"-config", "/nonexistent/tactile.json"}, "tactile.json"},
		{"positional", []string{"extra"}, "unexpected arguments"},
		{"unknown flag", []string{"-nope"}, "not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(tt.args, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseArgs_Help(t *testing.T) {
	var stderr bytes.Buffer
	_, err := parseArgs([]string{"-h"}, &stderr)
	assert.True(t, errors.Is(err, flag.ErrHelp))
	assert.True(t, strings.Contains(stderr.String(), "-distinct-rows"))
}

func TestRun_Version(t *testing.T) {
	o, err := parseArgs([]string{"-version"}, &bytes.Buffer{})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(o, &out))
	assert.True(t, strings.HasPrefix(out.String(), "tactile "))
}

func TestOpenSource_Disabled(t *testing.T) {
	o, err := parseArgs([]string{"-port", ""}, &bytes.Buffer{})
	require.NoError(t, err)

	src, err := openSource(false, o.cfg)
	require.NoError(t, err)
	assert.NoError(t, src.Close())
}

func TestOpenSource_Dev(t *testing.T) {
	o, err := parseArgs([]string{"-rows", "4", "-cols", "2"}, &bytes.Buffer{})
	require.NoError(t, err)

	src, err := openSource(true, o.cfg)
	require.NoError(t, err)
	defer src.Close()
}

func TestRun_TUIStartupErrorStillLogged(t *testing.T) {
	var logged bytes.Buffer
	prevOut, prevLogf := log.Writer(), monitoring.Logf
	log.SetOutput(&logged)
	var monitored []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		monitored = append(monitored, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		monitoring.SetLogger(prevLogf)
	})

	logFile := filepath.Join(t.TempDir(), "tactile.log")
	o, err := parseArgs([]string{
		"-tui", "on",
		"-port", "/nonexistent/ttyUSB9",
		"-listen", "",
		"-log-file", logFile,
	}, &bytes.Buffer{})
	require.NoError(t, err)

	err = run(o, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open serial port")

	// Both loggers are back on their original outputs once run returns.
	assert.Same(t, &logged, log.Writer())
	log.Print(err)
	assert.Contains(t, logged.String(), "failed to open serial port")

	monitoring.Logf("after run")
	assert.Equal(t, []string{"after run"}, monitored)

	_, statErr := os.Stat(logFile)
	assert.NoError(t, statErr, "log file created while the terminal UI was enabled")
}
