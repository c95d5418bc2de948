package aranet

import (
  "context"
  "encoding/binary"
  "fmt"
  "unicode/utf8"

  "github.com/pkg/errors"
  "github.com/robertof/go-aranet4-exporter/ble"
)

// Device is a strongly typed handle to a connected Aranet4 peripheral. It
// owns no state beyond the peripheral reference and never caches reads:
// every operation re-reads the device.
type Device struct {
  peripheral ble.Peripheral
}

// Open validates that the peripheral is a connected Aranet4 and returns a
// typed handle for it. Service discovery is triggered if the peripheral has
// not enumerated its services yet. Peripherals lacking the Aranet service
// UUID (including units on pre-v1.2.0 firmware, which use a legacy UUID) are
// rejected with ErrUnsupportedDevice.
func Open(ctx context.Context, p ble.Peripheral) (*Device, error) {
  if err := requireConnected(ctx, p); err != nil {
    return nil, err
  }

  if len(p.Services()) == 0 {
    if err := p.DiscoverServices(ctx); err != nil {
      return nil, fmt.Errorf("failed to discover services: %w", err)
    }
  }

  for _, svc := range p.Services() {
    if svc.Equal(ServiceUUID) {
      return &Device{peripheral: p}, nil
    }
  }

  return nil, errors.Wrapf(ErrUnsupportedDevice, "device %q", p.ID())
}

func requireConnected(ctx context.Context, p ble.Peripheral) error {
  connected, err := p.Connected(ctx)

  if err != nil {
    return fmt.Errorf("failed to query connection state: %w", err)
  }

  if !connected {
    return ErrNotConnected
  }

  return nil
}

func (d *Device) read(ctx context.Context, characteristic ble.UUID) ([]byte, error) {
  if err := requireConnected(ctx, d.peripheral); err != nil {
    return nil, err
  }

  return d.peripheral.Read(ctx, characteristic)
}

// CurrentReading reads and decodes the current environment sample.
func (d *Device) CurrentReading(ctx context.Context) (CurrentReading, error) {
  data, err := d.read(ctx, characteristicCurrentReading)

  if err != nil {
    return CurrentReading{}, err
  }

  return ParseCurrentReading(data)
}

// CurrentReadingDetailed reads and decodes the current environment sample
// along with the sampling interval and sample age.
func (d *Device) CurrentReadingDetailed(ctx context.Context) (CurrentReadingDetailed, error) {
  data, err := d.read(ctx, characteristicCurrentReadingDetailed)

  if err != nil {
    return CurrentReadingDetailed{}, err
  }

  return ParseCurrentReadingDetailed(data)
}

func (d *Device) readUint16(ctx context.Context, characteristic ble.UUID) (uint16, error) {
  data, err := d.read(ctx, characteristic)

  if err != nil {
    return 0, err
  }

  if len(data) != 2 {
    return 0, errors.Wrapf(ErrMalformedInput,
      "expected a 2-byte little endian integer, got %d bytes", len(data))
  }

  return binary.LittleEndian.Uint16(data), nil
}

// Interval returns the time between environment samples, in seconds.
func (d *Device) Interval(ctx context.Context) (uint16, error) {
  return d.readUint16(ctx, characteristicInterval)
}

// LastUpdateAge returns the number of seconds since the last environment
// sample was taken.
func (d *Device) LastUpdateAge(ctx context.Context) (uint16, error) {
  return d.readUint16(ctx, characteristicSecondsSinceUpdate)
}

// TotalReadings returns the number of samples stored on the device.
func (d *Device) TotalReadings(ctx context.Context) (uint16, error) {
  return d.readUint16(ctx, characteristicTotalReadings)
}

func (d *Device) readString(ctx context.Context, characteristic ble.UUID) (string, error) {
  data, err := d.read(ctx, characteristic)

  if err != nil {
    return "", err
  }

  if !utf8.Valid(data) {
    return "", errors.Wrapf(ErrEncoding, "characteristic %q is not valid UTF-8", characteristic)
  }

  return string(data), nil
}

// Name returns the advertised name of the device.
func (d *Device) Name(ctx context.Context) (string, error) {
  return d.readString(ctx, characteristicDeviceName)
}

// FirmwareVersion returns the firmware version string of the device.
func (d *Device) FirmwareVersion(ctx context.Context) (string, error) {
  return d.readString(ctx, characteristicSwRevision)
}
