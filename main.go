package main

import (
  "context"
  "fmt"
  "net"
  "net/http"
  "os"
  "os/signal"
  "strings"
  "sync"
  "syscall"
  "time"

  "github.com/prometheus/client_golang/prometheus"
  "github.com/prometheus/client_golang/prometheus/promhttp"
  "github.com/robertof/go-aranet4-exporter/aranet"
  "github.com/robertof/go-aranet4-exporter/ble"
  "github.com/robertof/go-aranet4-exporter/discovery"
  "github.com/robertof/go-aranet4-exporter/metrics"
  "github.com/rs/zerolog"
  "github.com/rs/zerolog/log"
)

func main() {
  zerolog.DurationFieldUnit = time.Second
  zerolog.TimeFieldFormat = time.RFC3339Nano

  log.Logger = log.Output(zerolog.ConsoleWriter{
    Out: os.Stderr,
    TimeFormat: "15:04:05.000",
  })

  cfg := ParseArgs()

  if cfg.Trace || os.Getenv("TRACE") != "" {
      zerolog.SetGlobalLevel(zerolog.TraceLevel)
  } else if cfg.Debug || os.Getenv("DEBUG") != "" {
      zerolog.SetGlobalLevel(zerolog.DebugLevel)
  } else {
      zerolog.SetGlobalLevel(zerolog.InfoLevel)
  }

  ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
  defer cancel()

  central := ble.NewLinuxCentral(bleFlags(cfg), cfg.BluetoothConnParams, cfg.BluetoothDeviceId)

  switch {
  case cfg.DumpAdvertisements:
    doAdvertisementDump(ctx, cfg, central)
  case cfg.Connect:
    doActiveRead(ctx, cfg, central)
  case cfg.BindAddress != "":
    doExport(ctx, cfg, central)
  default:
    doDiscoveryWatch(ctx, cfg, central)
  }
}

func bleFlags(cfg config) ble.Flags {
  var flags ble.Flags

  if cfg.DumpAdvertisements {
    flags |= ble.FlagScanTypeActive
  }

  if cfg.Device != nil && !cfg.Connect {
    flags |= ble.FlagEnableDeviceAllowList
  }

  return flags
}

// startDiscovery opens a discovery session and applies the configured device
// allow-list to every adapter that supports one.
func startDiscovery(ctx context.Context, cfg config, central *ble.LinuxCentral) *discovery.Discovery {
  if cfg.Device != nil {
    adapters, err := central.Adapters(ctx)

    if err != nil {
      log.Fatal().Err(err).Msg("Failed to enumerate Bluetooth adapters")
    }

    for _, adapter := range adapters {
      if la, ok := adapter.(*ble.LinuxAdapter); ok {
        if err := la.SetAllowListedAddresses([]net.HardwareAddr{cfg.Device}); err != nil {
          log.Error().Err(err).Stringer("Adapter", adapter).Msg("Failed to set device allow list")
        }
      }
    }
  }

  session, err := discovery.Discover(ctx, central)

  if err != nil {
    log.Fatal().Err(err).Msg("Failed to start device discovery")
  }

  if session.AdapterCount() == 0 {
    out, toStderr, code := renderNoAdapters(cfg.Format)

    if toStderr {
      fmt.Fprintln(os.Stderr, out)
    } else {
      fmt.Println(out)
    }

    os.Exit(code)
  }

  log.Info().Int("Adapters", session.AdapterCount()).Msg("Looking for Aranet4 devices")

  return session
}

func matchesDeviceFilter(cfg config, d discovery.DiscoveredDevice) bool {
  if cfg.Device == nil {
    return true
  }

  return strings.EqualFold(d.Peripheral, cfg.Device.String())
}

func doDiscoveryWatch(ctx context.Context, cfg config, central *ble.LinuxCentral) {
  session := startDiscovery(ctx, cfg, central)

  for d := range session.Events() {
    if !matchesDeviceFilter(cfg, d) {
      continue
    }

    log.Debug().
      Stringer("Device", d).
      Msg("Received advertisement event")

    switch cfg.Format {
    case formatJSON:
      out, err := renderDeviceJson(d, !cfg.Repeat)

      if err != nil {
        log.Fatal().Err(err).Msg("Failed to render device")
      }

      fmt.Println(out)
    case formatMonitoring:
      out, state := renderMonitoring(monitoringDescription(d), d.Reading, d.HasReading)

      fmt.Println(out)
      os.Exit(state)
    default:
      fmt.Println(renderDeviceText(d))
    }

    if !cfg.Repeat {
      return
    }

    sleepUntilNextSample(ctx, cfg, d.Reading, d.HasReading)
  }

  // every adapter's event source ended (e.g. adapters removed) or we got
  // interrupted before seeing a matching device.
  log.Warn().Msg("Discovery stream ended without a matching device")
}

func sleepUntilNextSample(
  ctx context.Context,
  cfg config,
  reading aranet.CurrentReadingDetailed,
  hasReading bool,
) {
  interval := cfg.Interval

  if interval == 0 {
    if hasReading {
      interval = time.Duration(reading.Interval) * time.Second
    } else {
      log.Trace().Msg("Requested device interval but device did not provide a reading! Using 60s default")
      interval = 60 * time.Second
    }
  }

  log.Debug().Dur("IntervalSec", interval).Msg("Sleeping before receiving the next event")

  select {
  case <-ctx.Done():
  case <-time.After(interval):
  }
}

func doActiveRead(ctx context.Context, cfg config, central *ble.LinuxCentral) {
  for {
    reading, name, firmwareVersion := readDeviceOnce(ctx, cfg, central)

    switch cfg.Format {
    case formatJSON:
      out, err := renderActiveReadingJson(
        cfg.Device.String(), name, firmwareVersion, reading, !cfg.Repeat)

      if err != nil {
        log.Fatal().Err(err).Msg("Failed to render reading")
      }

      fmt.Println(out)
    case formatMonitoring:
      desc := fmt.Sprintf("Reading from %s, Firmware %s (Measurement age %d/%ds)",
        cfg.Device, firmwareVersion, reading.Age, reading.Interval)

      out, state := renderMonitoring(desc, reading, true)

      fmt.Println(out)
      os.Exit(state)
    default:
      fmt.Print(reading)
    }

    if !cfg.Repeat {
      return
    }

    sleepUntilNextSample(ctx, cfg, reading, true)

    if ctx.Err() != nil {
      return
    }
  }
}

func readDeviceOnce(
  ctx context.Context,
  cfg config,
  central *ble.LinuxCentral,
) (reading aranet.CurrentReadingDetailed, name, firmwareVersion string) {
  peripheral, closeConn, err := central.Dial(ctx, cfg.Device)

  if err != nil {
    log.Fatal().Err(err).Stringer("Device", cfg.Device).Msg("Failed to connect to device")
  }

  defer closeConn()

  dev, err := aranet.Open(ctx, peripheral)

  if err != nil {
    log.Fatal().Err(err).Stringer("Device", cfg.Device).Msg("Failed to open device")
  }

  reading, err = dev.CurrentReadingDetailed(ctx)

  if err != nil {
    log.Fatal().Err(err).Stringer("Device", cfg.Device).Msg("Failed to read sample from device")
  }

  if name, err = dev.Name(ctx); err != nil {
    log.Warn().Err(err).Msg("Failed to read device name")
  }

  if firmwareVersion, err = dev.FirmwareVersion(ctx); err != nil {
    log.Warn().Err(err).Msg("Failed to read firmware version")
  }

  return reading, name, firmwareVersion
}

func doExport(ctx context.Context, cfg config, central *ble.LinuxCentral) {
  session := startDiscovery(ctx, cfg, central)

  var mu sync.Mutex
  latest := make(map[string]metrics.TimestampedDevice)

  go func() {
    for d := range session.Events() {
      if !matchesDeviceFilter(cfg, d) {
        continue
      }

      log.Debug().Stringer("Device", d).Msg("Updating latest reading for device")

      mu.Lock()
      latest[d.Peripheral] = metrics.TimestampedDevice{
        DiscoveredDevice: d,
        Time:             time.Now(),
      }
      mu.Unlock()
    }

    log.Warn().Msg("Discovery stream ended, metrics will go stale")
  }()

  registry := prometheus.NewRegistry()

  metrics.RegisterCollector(
    func() map[string]metrics.TimestampedDevice {
      mu.Lock()
      defer mu.Unlock()

      out := make(map[string]metrics.TimestampedDevice, len(latest))

      for k, v := range latest {
        out[k] = v
      }

      return out
    },
    registry,
  )

  log.Info().
      Str("ListenAddress", cfg.BindAddress).
      Msg("Starting Prometheus server")

  http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

  if err := http.ListenAndServe(cfg.BindAddress, nil); err != nil {
      log.Fatal().Err(err).Msg("Unable to bind on requested address")
  }
}
