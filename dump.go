package main

import (
  "context"
  "fmt"
  "time"

  "github.com/rs/zerolog/log"
  "golang.org/x/exp/maps"

  "github.com/robertof/go-aranet4-exporter/ble"
)

// doAdvertisementDump surveys every BLE advertisement seen for 5 seconds and
// prints which devices were found. Useful to locate the address of an
// Aranet4 (or to check what else is shouting on the air).
func doAdvertisementDump(parentCtx context.Context, cfg config, central *ble.LinuxCentral) {
  log.Info().Msg("Starting in advertisement dump mode - collecting devices for 5 seconds...")

  ctx, cancel := context.WithTimeout(parentCtx, 5 * time.Second)
  defer cancel()

  adapters, err := central.Adapters(ctx)

  if err != nil {
    log.Fatal().Err(err).Msg("Failed to enumerate Bluetooth adapters")
  }

  if len(adapters) == 0 {
    log.Fatal().Msg("No Bluetooth adapters present")
  }

  type deviceInfo struct {
    services        map[string]bool
    manufacturerIds map[uint16]bool
  }

  devices := make(map[string]*deviceInfo)

  lookup := func(peripheral string) *deviceInfo {
    info := devices[peripheral]

    if info == nil {
      info = &deviceInfo{
        services:        make(map[string]bool),
        manufacturerIds: make(map[uint16]bool),
      }
      devices[peripheral] = info
    }

    return info
  }

  for _, adapter := range adapters {
    if err := adapter.StartScan(ctx); err != nil {
      log.Error().Err(err).Stringer("Adapter", adapter).Msg("Failed to start scan")
      continue
    }

    defer adapter.StopScan()

    events, err := adapter.Events()

    if err != nil {
      log.Error().Err(err).Stringer("Adapter", adapter).Msg("Failed to subscribe to adapter events")
      continue
    }

    for event := range events {
      switch event.Kind {
      case ble.EventManufacturerData:
        info := lookup(event.Peripheral)

        for id, data := range event.ManufacturerData {
          info.manufacturerIds[id] = true

          log.Debug().
            Str("Addr", event.Peripheral).
            Uint16("ManufacturerID", id).
            Hex("ManufacturerData", data).
            Msg("Received manufacturer data advertisement")
        }
      case ble.EventServicesAdvertisement:
        info := lookup(event.Peripheral)

        for _, uuid := range event.Services {
          info.services[uuid.String()] = true
        }
      default:
        lookup(event.Peripheral)
      }
    }
  }

  log.Info().Int("Found", len(devices)).Msg("Finished advertisement dump")

  for addr, info := range devices {
    manufacturerIds := make([]string, 0, len(info.manufacturerIds))

    for _, id := range maps.Keys(info.manufacturerIds) {
      manufacturerIds = append(manufacturerIds, fmt.Sprintf("0x%04x", id))
    }

    log.Info().
      Str("Addr", addr).
      Strs("Services", maps.Keys(info.services)).
      Strs("ManufacturerIDs", manufacturerIds).
      Msg("Found device")
  }
}
