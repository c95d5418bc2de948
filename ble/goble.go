package ble

import (
  "context"
  "errors"
  "fmt"
  "net"
  "sync"

  "github.com/go-ble/ble"
  "github.com/go-ble/ble/linux"
  "github.com/go-ble/ble/linux/hci/cmd"
  "github.com/robertof/go-aranet4-exporter/utils"
  "github.com/rs/zerolog/log"
)

// LinuxCentral is a Central backed by go-ble over raw HCI sockets. Adapters
// are addressed by HCI device ID (hci0, hci1, ...).
type LinuxCentral struct {
  deviceIds  []int
  flags      Flags
  connParams ConnParams

  mu       sync.Mutex
  adapters []Adapter
  opened   bool
}

func NewLinuxCentral(flags Flags, connParams ConnParams, deviceIds ...int) *LinuxCentral {
  if len(deviceIds) == 0 {
    deviceIds = []int{0}
  }

  return &LinuxCentral{
    deviceIds:  deviceIds,
    flags:      flags,
    connParams: connParams,
  }
}

// Adapters opens every configured HCI device. Devices that fail to open are
// treated as absent and skipped; a host with no usable adapter yields an
// empty list. Devices are opened once and reused on subsequent calls.
func (c *LinuxCentral) Adapters(_ context.Context) ([]Adapter, error) {
  c.mu.Lock()
  defer c.mu.Unlock()

  if c.opened {
    return c.adapters, nil
  }

  var adapters []Adapter

  for _, id := range c.deviceIds {
    dev, err := newLinuxDevice(id, c.flags, c.connParams)

    if err != nil {
      log.Debug().
        Err(err).
        Int("DeviceID", id).
        Msg("ble: skipping unavailable Bluetooth adapter")
      continue
    }

    adapters = append(adapters, &LinuxAdapter{id: id, dev: dev})
  }

  c.adapters = adapters
  c.opened = true

  return adapters, nil
}

func newLinuxDevice(deviceId int, flags Flags, connParams ConnParams) (*linux.Device, error) {
  var scanType scanType = scanTypePassive
  var filterPolicy filterPolicy = filterPolicyAcceptAll

  if flags & FlagScanTypeActive == FlagScanTypeActive {
    scanType = scanTypeActive
  }

  if flags & FlagEnableDeviceAllowList == FlagEnableDeviceAllowList {
    filterPolicy = filterPolicyAllowListedOnly
  }

  log.Debug().
    Stringer("ScanType", scanType).
    Stringer("FilterPolicy", filterPolicy).
    Stringer("ConnParams", &connParams).
    Stringer("Flags", flags).
    Int("DeviceID", deviceId).
    Msg("Initializing Bluetooth device")

  dev, err := linux.NewDevice(
    ble.OptDeviceID(deviceId),
    ble.OptScanParams(cmd.LESetScanParameters{
      LEScanType:           uint8(scanType),     // 0x00: passive, 0x01: active
      LEScanInterval:       0x0004,              // 0x0004 - 0x4000; N * 0.625msec
      LEScanWindow:         0x0004,              // 0x0004 - 0x4000; N * 0.625msec
      OwnAddressType:       0x00,                // 0x00: public, 0x01: random
      ScanningFilterPolicy: uint8(filterPolicy), // 0x00: accept all, 0x01: ignore non-allow-listed.
    }),
    ble.OptConnParams(connParams.AdapterOptions()),
  )

  if err != nil {
    return nil, fmt.Errorf("failed to init bluetooth device: %w", err)
  }

  ble.SetDefaultDevice(dev)

  return dev, nil
}

// LinuxAdapter is a single HCI device. It implements Adapter.
type LinuxAdapter struct {
  id  int
  dev *linux.Device

  mu     sync.Mutex
  cancel context.CancelFunc
  filter []UUID
  events chan CentralEvent
}

func (a *LinuxAdapter) String() string {
  return fmt.Sprintf("hci%d", a.id)
}

// StartScan begins a scan on the adapter. The service filter is applied in
// the advertisement handler: go-ble's Linux HCI binding has no native
// service-based scan filter.
func (a *LinuxAdapter) StartScan(ctx context.Context, services ...UUID) error {
  a.mu.Lock()
  defer a.mu.Unlock()

  if a.events != nil {
    return errors.New("scan already running on this adapter")
  }

  scanCtx, cancel := context.WithCancel(ctx)
  a.cancel = cancel
  a.filter = services
  a.events = make(chan CentralEvent, 16)

  events := a.events

  go func() {
    err := a.dev.Scan(scanCtx, true, func(adv ble.Advertisement) {
      a.handleAdvertisement(scanCtx, events, adv)
    })

    if err != nil && !utils.ErrorIsAnyOf(err, context.Canceled, context.DeadlineExceeded) {
      log.Warn().Err(err).Stringer("Adapter", a).Msg("ble: scan terminated with an error")
    }

    close(events)
  }()

  log.Debug().Stringer("Adapter", a).Msg("ble: started scanning")

  return nil
}

// Events returns the live scan event stream. StartScan must be called first.
func (a *LinuxAdapter) Events() (<-chan CentralEvent, error) {
  a.mu.Lock()
  defer a.mu.Unlock()

  if a.events == nil {
    return nil, errors.New("adapter is not scanning")
  }

  return a.events, nil
}

func (a *LinuxAdapter) StopScan() {
  a.mu.Lock()
  defer a.mu.Unlock()

  if a.cancel != nil {
    a.cancel()
    a.cancel = nil
  }
}

func (a *LinuxAdapter) handleAdvertisement(
  ctx context.Context,
  events chan CentralEvent,
  adv ble.Advertisement,
) {
  // an advertisement that names services not matching the filter is not from
  // the device we're scanning for. advertisements without a service list
  // (e.g. manufacturer-data-only frames) always pass.
  if len(a.filter) > 0 && len(adv.Services()) > 0 && !a.advertisementMatchesFilter(adv) {
    return
  }

  for _, ev := range advertisementEvents(adv) {
    select {
    case events <- ev:
    case <-ctx.Done():
      return
    }
  }
}

func (a *LinuxAdapter) advertisementMatchesFilter(adv ble.Advertisement) bool {
  for _, advertised := range adv.Services() {
    for _, wanted := range a.filter {
      if UUID(advertised.String()).Equal(wanted) {
        return true
      }
    }
  }

  return false
}

// advertisementEvents maps a go-ble advertisement onto central events. The
// raw manufacturer data blob embeds the company identifier in its first two
// bytes, little-endian.
func advertisementEvents(adv ble.Advertisement) []CentralEvent {
  id := adv.Addr().String()
  events := []CentralEvent{{Kind: EventDeviceDiscovered, Peripheral: id}}

  if data := adv.ManufacturerData(); len(data) >= 2 {
    companyId := uint16(data[0]) | uint16(data[1]) << 8

    events = append(events, CentralEvent{
      Kind:             EventManufacturerData,
      Peripheral:       id,
      ManufacturerData: map[uint16][]byte{companyId: data[2:]},
    })
  }

  if services := adv.Services(); len(services) > 0 {
    uuids := make([]UUID, len(services))

    for i, svc := range services {
      uuids[i] = UUID(svc.String())
    }

    events = append(events, CentralEvent{
      Kind:       EventServicesAdvertisement,
      Peripheral: id,
      Services:   uuids,
    })
  }

  return events
}

// SetAllowListedAddresses programs the controller's scan allow-list. Only
// effective when the adapter was initialized with FlagEnableDeviceAllowList.
func (a *LinuxAdapter) SetAllowListedAddresses(addrs []net.HardwareAddr) error {
  log.Debug().
    Array("DeviceAddresses", utils.ToZeroLogArray(addrs)).
    Stringer("Adapter", a).
    Msg("Allow-listing the requested Bluetooth devices")

  // clear the white list to make sure we're starting from an empty slate.
  var res cmd.LEClearWhiteListRP

  err := a.dev.HCI.Send(&cmd.LEClearWhiteList{}, &res)

  if err != nil {
    return fmt.Errorf("failed to clear allow-list: %w", err)
  }

  if res.Status != 0 {
    return fmt.Errorf("failed to clear allow-list: got status: %v", res.Status)
  }

  for _, addr := range addrs {
    bytes := []byte(addr)

    if len(bytes) != 6 {
      return fmt.Errorf("got non-6 byte device MAC address: %q", addr.String())
    }

    var res cmd.LEAddDeviceToWhiteListRP

    // the HCI command wants the address bytes flipped due to endianness.
    err := a.dev.HCI.Send(&cmd.LEAddDeviceToWhiteList{
      AddressType: 0x00, // public
      Address:     [6]byte(utils.Reverse(bytes)),
    }, &res)

    if err != nil {
      return fmt.Errorf("failed to allow-list device %q: %w", addr.String(), err)
    }

    if res.Status != 0 {
      return fmt.Errorf("failed to allow-list device %q: got status: %v", addr.String(), res.Status)
    }
  }

  return nil
}
