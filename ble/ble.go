package ble

import (
  "context"
  "fmt"
  "strings"
)

// UUID is a Bluetooth service or characteristic UUID in string form. Values
// compare equal regardless of case or dashes, so UUIDs sourced from different
// BLE stacks can be matched directly.
type UUID string

func (u UUID) normalized() string {
  return strings.ToLower(strings.ReplaceAll(string(u), "-", ""))
}

func (u UUID) Equal(other UUID) bool {
  return u.normalized() == other.normalized()
}

func (u UUID) String() string {
  return string(u)
}

// Central enumerates the Bluetooth adapters available on the host. A host
// without Bluetooth support yields an empty adapter list, not an error.
type Central interface {
  Adapters(ctx context.Context) ([]Adapter, error)
}

// Adapter is a single Bluetooth adapter capable of scanning for
// advertisements.
//
// StartScan begins an advertisement scan, optionally filtered to peripherals
// related to the given service UUIDs. Events returns the live event stream
// produced by the scan; the channel is closed when the scan ends. StopScan
// ends the scan and releases the adapter. A single scan per adapter is
// supported: callers must not start a second scan while one is running.
type Adapter interface {
  fmt.Stringer

  StartScan(ctx context.Context, services ...UUID) error
  StopScan()
  Events() (<-chan CentralEvent, error)
}

// Peripheral is a remote BLE device, usually in a connected state.
type Peripheral interface {
  // ID returns the stable identity of the peripheral (its address, on Linux).
  ID() string
  Connected(ctx context.Context) (bool, error)
  DiscoverServices(ctx context.Context) error
  // Services returns the service UUIDs enumerated so far. Empty until
  // DiscoverServices has run.
  Services() []UUID
  Read(ctx context.Context, characteristic UUID) ([]byte, error)
}
