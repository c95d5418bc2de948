package ble

import "strconv"

// EventKind discriminates the variants of CentralEvent.
type EventKind uint8

const (
  EventDeviceConnected EventKind = iota
  EventDeviceDisconnected
  EventDeviceDiscovered
  EventDeviceUpdated
  EventManufacturerData
  EventServiceData
  EventServicesAdvertisement
)

func (k EventKind) String() string {
  switch k {
  case EventDeviceConnected:
    return "DeviceConnected"
  case EventDeviceDisconnected:
    return "DeviceDisconnected"
  case EventDeviceDiscovered:
    return "DeviceDiscovered"
  case EventDeviceUpdated:
    return "DeviceUpdated"
  case EventManufacturerData:
    return "ManufacturerDataAdvertisement"
  case EventServiceData:
    return "ServiceDataAdvertisement"
  case EventServicesAdvertisement:
    return "ServicesAdvertisement"
  default:
    panic("unknown EventKind value: " + strconv.Itoa(int(k)))
  }
}

// CentralEvent is one event delivered by an adapter's scan stream.
type CentralEvent struct {
  Kind EventKind
  // Peripheral is the identity of the device the event relates to.
  Peripheral string
  // ManufacturerData holds vendor-specific advertisement payloads keyed by
  // the 16-bit company identifier. Set only for EventManufacturerData.
  ManufacturerData map[uint16][]byte
  // Services holds the advertised service UUIDs. Set only for
  // EventServicesAdvertisement.
  Services []UUID
}
