package ble

import (
  "context"
  "fmt"
  "net"
  "sync"

  "github.com/go-ble/ble"
  "github.com/rs/zerolog/log"
)

// Dial connects to the peripheral with the given address through the default
// adapter and returns it as a Peripheral. The caller owns the connection and
// should CancelConnection() through the returned closer when done.
func (c *LinuxCentral) Dial(ctx context.Context, addr net.HardwareAddr) (Peripheral, func(), error) {
  // make sure at least one adapter has been opened, as go-ble dials through
  // the package-wide default device.
  adapters, err := c.Adapters(ctx)

  if err != nil {
    return nil, nil, err
  }

  if len(adapters) == 0 {
    return nil, nil, fmt.Errorf("no Bluetooth adapters available to dial %q", addr.String())
  }

  conn, err := ble.Dial(ctx, ble.NewAddr(addr.String()))

  if err != nil {
    return nil, nil, fmt.Errorf("failed to connect to device %q: %w", addr.String(), err)
  }

  log.Debug().Stringer("Addr", addr).Msg("ble: successfully opened connection to device")

  closer := func() {
    if err := conn.CancelConnection(); err != nil {
      log.Warn().Err(err).Stringer("Addr", addr).Msg("ble: failed to close connection")
    }
  }

  return &connectedPeripheral{client: conn}, closer, nil
}

// connectedPeripheral adapts a go-ble client to the Peripheral interface.
type connectedPeripheral struct {
  client ble.Client

  mu      sync.Mutex
  profile *ble.Profile
}

func (p *connectedPeripheral) ID() string {
  return p.client.Addr().String()
}

func (p *connectedPeripheral) Connected(_ context.Context) (bool, error) {
  select {
  case <-p.client.Disconnected():
    return false, nil
  default:
    return true, nil
  }
}

func (p *connectedPeripheral) DiscoverServices(_ context.Context) error {
  profile, err := p.client.DiscoverProfile(false)

  if err != nil {
    return fmt.Errorf("cannot discover profile for device: %w", err)
  }

  p.mu.Lock()
  p.profile = profile
  p.mu.Unlock()

  return nil
}

func (p *connectedPeripheral) Services() (uuids []UUID) {
  p.mu.Lock()
  defer p.mu.Unlock()

  if p.profile == nil {
    return nil
  }

  for _, svc := range p.profile.Services {
    uuids = append(uuids, UUID(svc.UUID.String()))
  }

  return uuids
}

func (p *connectedPeripheral) Read(_ context.Context, characteristic UUID) ([]byte, error) {
  p.mu.Lock()
  profile := p.profile
  p.mu.Unlock()

  if profile == nil {
    return nil, fmt.Errorf("cannot read %q: services have not been discovered", characteristic)
  }

  for _, svc := range profile.Services {
    for _, char := range svc.Characteristics {
      if !UUID(char.UUID.String()).Equal(characteristic) {
        continue
      }

      data, err := p.client.ReadCharacteristic(char)

      if err != nil {
        return nil, fmt.Errorf("failed to read characteristic %q: %w", characteristic, err)
      }

      return data, nil
    }
  }

  return nil, fmt.Errorf("characteristic %q not found on device", characteristic)
}
