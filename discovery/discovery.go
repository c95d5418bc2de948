// Package discovery locates Aranet4 devices by listening for their
// manufacturer data advertisements across every available Bluetooth adapter.
package discovery

import (
  "context"
  "errors"
  "fmt"

  "github.com/robertof/go-aranet4-exporter/aranet"
  "github.com/robertof/go-aranet4-exporter/ble"
  "github.com/rs/zerolog/log"
  "golang.org/x/sync/errgroup"
)

// DiscoveredDevice is one matching advertisement as seen by one adapter. The
// same physical device produces a new record for every advertisement it
// emits; records are not deduplicated.
type DiscoveredDevice struct {
  Adapter    ble.Adapter
  Peripheral string

  ManufacturerData aranet.ManufacturerData

  // Reading is the environment sample embedded in the advertisement, when
  // present. Advertisements without one (or with a truncated one) are still
  // reported, with HasReading unset.
  Reading    aranet.CurrentReadingDetailed
  HasReading bool
}

func (d DiscoveredDevice) String() string {
  return fmt.Sprintf("DiscoveredDevice[Peripheral=%v,Adapter=%v,%v,HasReading=%v]",
    d.Peripheral, d.Adapter, d.ManufacturerData, d.HasReading)
}

// Discovery is a running discovery session. Events() yields devices in
// arrival order across all adapters and is closed once every adapter's event
// stream ends. Cancelling the context passed to Discover stops all scans.
type Discovery struct {
  events    <-chan DiscoveredDevice
  adapters  int
  setupErrs []error
}

// Events returns the merged stream of discovered devices.
func (d *Discovery) Events() <-chan DiscoveredDevice {
  return d.events
}

// AdapterCount returns how many adapters the session is listening on. A
// session with zero adapters yields no events and its stream is closed
// immediately; callers should treat that differently from a live session
// that has not seen the device yet.
func (d *Discovery) AdapterCount() int {
  return d.adapters
}

// SetupErrors returns the per-adapter failures encountered while starting
// the session, if any. Only populated when at least one adapter started
// successfully; otherwise Discover itself fails.
func (d *Discovery) SetupErrors() []error {
  return d.setupErrs
}

// Discover starts a service-filtered scan on every available adapter and
// merges the resulting advertisement streams into a single sequence of
// DiscoveredDevice records.
//
// An error listing adapters, or a setup failure on every adapter, aborts the
// session. A setup failure on some adapters only is tolerated and recorded.
func Discover(ctx context.Context, central ble.Central) (*Discovery, error) {
  adapters, err := central.Adapters(ctx)

  if err != nil {
    return nil, fmt.Errorf("failed to enumerate Bluetooth adapters: %w", err)
  }

  log.Debug().Int("Adapters", len(adapters)).Msg("discovery: found Bluetooth adapters")

  type adapterStream struct {
    adapter ble.Adapter
    events  <-chan ble.CentralEvent
  }

  var streams []adapterStream
  var setupErrs []error

  for _, adapter := range adapters {
    if err := adapter.StartScan(ctx, aranet.ServiceUUID); err != nil {
      setupErrs = append(setupErrs,
        fmt.Errorf("failed to start scan on adapter %v: %w", adapter, err))
      continue
    }

    events, err := adapter.Events()

    if err != nil {
      adapter.StopScan()
      setupErrs = append(setupErrs,
        fmt.Errorf("failed to subscribe to events of adapter %v: %w", adapter, err))
      continue
    }

    log.Debug().Stringer("Adapter", adapter).Msg("discovery: listening")

    streams = append(streams, adapterStream{adapter: adapter, events: events})
  }

  if len(adapters) > 0 && len(streams) == 0 {
    return nil, errors.Join(setupErrs...)
  }

  for _, err := range setupErrs {
    log.Warn().Err(err).Msg("discovery: proceeding without a failed adapter")
  }

  out := make(chan DiscoveredDevice)

  var eg errgroup.Group

  for _, stream := range streams {
    stream := stream

    eg.Go(func() error {
      defer stream.adapter.StopScan()

      for event := range stream.events {
        device, ok := matchEvent(stream.adapter, event)

        if !ok {
          continue
        }

        select {
        case out <- device:
        case <-ctx.Done():
          return ctx.Err()
        }
      }

      log.Debug().Stringer("Adapter", stream.adapter).Msg("discovery: adapter event stream ended")

      return nil
    })
  }

  go func() {
    if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
      log.Debug().Err(err).Msg("discovery: session ended")
    }

    close(out)
  }()

  return &Discovery{
    events:    out,
    adapters:  len(streams),
    setupErrs: setupErrs,
  }, nil
}

// matchEvent filters an adapter event down to an Aranet4 discovery record.
// Non-advertisement events and foreign manufacturer IDs are dropped. A
// malformed or missing embedded reading degrades to HasReading=false; a
// malformed status block drops the whole event.
func matchEvent(adapter ble.Adapter, event ble.CentralEvent) (device DiscoveredDevice, ok bool) {
  if event.Kind != ble.EventManufacturerData {
    return device, false
  }

  data, ok := event.ManufacturerData[aranet.ManufacturerID]

  if !ok || len(data) < 7 {
    return device, false
  }

  manufacturerData, err := aranet.ParseManufacturerData(data[:7])

  if err != nil {
    log.Warn().
      Err(err).
      Str("Peripheral", event.Peripheral).
      Hex("Data", data).
      Msg("discovery: dropping advertisement with malformed status block")

    return device, false
  }

  device = DiscoveredDevice{
    Adapter:          adapter,
    Peripheral:       event.Peripheral,
    ManufacturerData: manufacturerData,
  }

  // byte 7 is unused; the sample, when included, spans bytes 8 through 20.
  if len(data) >= 21 {
    if reading, err := aranet.ParseCurrentReadingDetailed(data[8:21]); err == nil {
      device.Reading = reading
      device.HasReading = true
    }
  }

  return device, true
}
