package serialmux

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// openPort is the opener used by NewRealSerialMux.
var openPort SerialPortOpener = OpenPort

// OpenPort opens a real serial port with the given options and applies the
// read timeout, so reads return periodically even when the device is silent.
func OpenPort(path string, opts PortOptions) (SerialPorter, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := setReadTimeout(port, opts.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", path, err)
	}
	return port, nil
}

// setReadTimeout applies d to ports implementing TimeoutSerialPorter and
// leaves other ports alone.
func setReadTimeout(port SerialPorter, d time.Duration) error {
	tp, ok := port.(TimeoutSerialPorter)
	if !ok {
		return nil
	}
	return tp.SetReadTimeout(d)
}

// NewRealSerialMux creates a SerialMux instance backed by a real serial port at the
// given path using the provided serial options.
func NewRealSerialMux(path string, opts PortOptions) (*SerialMux[SerialPorter], error) {
	port, err := openPort(path, opts)
	if err != nil {
		return nil, err
	}
	return NewSerialMux(port), nil
}

// ListPorts returns the serial ports present on the system.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
