package main

import (
  "flag"
  "fmt"
  "net"
  "os"
  "slices"
  "time"

  "github.com/robertof/go-aranet4-exporter/ble"
)

type outputFormat string

const (
  formatText       outputFormat = "text"
  formatJSON       outputFormat = "json"
  formatMonitoring outputFormat = "monitoring"
)

// *flag.Value
func (f *outputFormat) String() string {
  return string(*f)
}

func (f *outputFormat) Set(v string) error {
  if v == "" {
    *f = formatText
    return nil
  }

  allFormats := []outputFormat{formatText, formatJSON, formatMonitoring}
  of := outputFormat(v)

  if !slices.Contains(allFormats, of) {
    return fmt.Errorf("unknown output format %v (must be one of %v)", of, allFormats)
  }

  *f = of
  return nil
}

type config struct {
  Debug, Trace bool
  Format outputFormat
  Repeat bool
  Interval time.Duration
  Device net.HardwareAddr
  Connect bool
  DumpAdvertisements bool
  BindAddress string
  BluetoothDeviceId int
  BluetoothConnParams ble.ConnParams
}

func ParseArgs() config {
  var cfg config

  cfg.Format = formatText
  cfg.BluetoothConnParams = ble.ConnParamsDefault

  var device string

  flag.Var(&cfg.Format, "format",
    "Output format (one of 'text', 'json' or 'monitoring'). With -repeat, 'json' prints one "+
    "object per line. 'monitoring' emits a monitoring-plugin status line and ignores -repeat")
  flag.BoolVar(&cfg.Repeat, "repeat", false,
    "Keep listening and outputting samples instead of exiting after the first one")
  flag.DurationVar(&cfg.Interval, "interval", 0,
    "With -repeat, how long to wait between samples. If 0, the interval reported by the device is used")
  flag.StringVar(&device, "device", "",
    "MAC address of a specific Aranet4 device to listen for, rather than the first available")
  flag.BoolVar(&cfg.Connect, "connect", false,
    "Connect to the device and request a sample actively instead of waiting for an advertisement. Requires -device")
  flag.BoolVar(&cfg.DumpAdvertisements, "dump", false,
    "Dump all received BLE advertisements and quit after 5 seconds")
  flag.StringVar(&cfg.BindAddress, "bind", "",
    "Serve the latest discovered readings as Prometheus metrics on this address (e.g. 'localhost:9103')")
  flag.IntVar(&cfg.BluetoothDeviceId, "bluetooth-device", 0, "Bluetooth (HCI) device ID")
  flag.Var(&cfg.BluetoothConnParams, "bluetooth-connection-params",
    "Bluetooth connection parameters (one of 'default' or 'power-saving')")
  flag.BoolVar(&cfg.Debug, "debug", false, "Enable debug logs")
  flag.BoolVar(&cfg.Trace, "trace", false, "Enable trace logs")

  flag.Parse()

  if device != "" {
    hwAddr, err := net.ParseMAC(device)

    if err != nil {
      fmt.Fprintf(os.Stderr, "Error: invalid device address %q: %v\n", device, err)
      flag.Usage()
      os.Exit(1)
    }

    cfg.Device = hwAddr
  }

  if cfg.Connect && cfg.Device == nil {
    fmt.Fprintln(os.Stderr, "Error: -connect requires -device!")
    flag.Usage()
    os.Exit(1)
  }

  return cfg
}
