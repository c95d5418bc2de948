package aranet_test

import (
  "context"
  "errors"
  "reflect"
  "testing"

  "github.com/robertof/go-aranet4-exporter/aranet"
  "github.com/robertof/go-aranet4-exporter/ble"
)

const (
  currentReadingUuid         ble.UUID = "f0cd1503-95da-4f4b-9ac8-aa55d312af0c"
  currentReadingDetailedUuid ble.UUID = "f0cd3001-95da-4f4b-9ac8-aa55d312af0c"
  intervalUuid               ble.UUID = "f0cd2002-95da-4f4b-9ac8-aa55d312af0c"
  secondsSinceUpdateUuid     ble.UUID = "f0cd2004-95da-4f4b-9ac8-aa55d312af0c"
  totalReadingsUuid          ble.UUID = "f0cd2001-95da-4f4b-9ac8-aa55d312af0c"
  deviceNameUuid             ble.UUID = "00002a00-0000-1000-8000-00805f9b34fb"
  swRevisionUuid             ble.UUID = "00002a26-0000-1000-8000-00805f9b34fb"
)

type fakePeripheral struct {
  id           string
  connected    bool
  services     []ble.UUID
  discovered   []ble.UUID
  discoverErr  error
  discoverRuns int
  reads        map[ble.UUID][]byte
  readErr      error
}

func (p *fakePeripheral) ID() string {
  return p.id
}

func (p *fakePeripheral) Connected(_ context.Context) (bool, error) {
  return p.connected, nil
}

func (p *fakePeripheral) DiscoverServices(_ context.Context) error {
  p.discoverRuns += 1

  if p.discoverErr != nil {
    return p.discoverErr
  }

  p.services = p.discovered

  return nil
}

func (p *fakePeripheral) Services() []ble.UUID {
  return p.services
}

func (p *fakePeripheral) Read(_ context.Context, characteristic ble.UUID) ([]byte, error) {
  if p.readErr != nil {
    return nil, p.readErr
  }

  for uuid, data := range p.reads {
    if uuid.Equal(characteristic) {
      return data, nil
    }
  }

  return nil, errors.New("characteristic not found on device")
}

func connectedAranet() *fakePeripheral {
  return &fakePeripheral{
    id:        "DB:CC:EB:73:3B:2E",
    connected: true,
    services:  []ble.UUID{"0000fce0-0000-1000-8000-00805f9b34fb"},
    reads:     map[ble.UUID][]byte{},
  }
}

func TestOpen_NotConnected(t *testing.T) {
  p := connectedAranet()
  p.connected = false

  _, err := aranet.Open(context.Background(), p)

  if !errors.Is(err, aranet.ErrNotConnected) {
    t.Fatalf("Open() on a disconnected peripheral: got error %v, wanted ErrNotConnected", err)
  }
}

func TestOpen_TriggersServiceDiscovery(t *testing.T) {
  p := connectedAranet()
  p.discovered = p.services
  p.services = nil

  _, err := aranet.Open(context.Background(), p)

  if err != nil {
    t.Fatalf("Open() got error: %v", err)
  }

  if p.discoverRuns != 1 {
    t.Errorf("Open() ran service discovery %d times, wanted 1", p.discoverRuns)
  }
}

func TestOpen_SkipsDiscoveryWhenServicesKnown(t *testing.T) {
  p := connectedAranet()

  _, err := aranet.Open(context.Background(), p)

  if err != nil {
    t.Fatalf("Open() got error: %v", err)
  }

  if p.discoverRuns != 0 {
    t.Errorf("Open() ran service discovery %d times, wanted 0", p.discoverRuns)
  }
}

func TestOpen_UnsupportedDevice(t *testing.T) {
  // a device exposing only the legacy (pre-v1.2.0) service must be rejected,
  // as must any non-Aranet device.
  for _, services := range [][]ble.UUID{
    {"f0cd1400-95da-4f4b-9ac8-aa55d312af0c"},
    {"00001800-0000-1000-8000-00805f9b34fb"},
    {},
  } {
    p := connectedAranet()
    p.services = services
    p.discovered = services

    _, err := aranet.Open(context.Background(), p)

    if !errors.Is(err, aranet.ErrUnsupportedDevice) {
      t.Errorf("Open() with services %v: got error %v, wanted ErrUnsupportedDevice",
        services, err)
    }
  }
}

func TestDevice_CurrentReading(t *testing.T) {
  p := connectedAranet()
  p.reads[currentReadingUuid] = []byte{
    0x20, 0x03, 0x90, 0x01, 0x92,
    0x27, 0x2d, 0x50, 0x01,
  }

  dev, err := aranet.Open(context.Background(), p)

  if err != nil {
    t.Fatalf("Open() got error: %v", err)
  }

  got, err := dev.CurrentReading(context.Background())

  if err != nil {
    t.Fatalf("CurrentReading() got error: %v", err)
  }

  want := aranet.CurrentReading{
    CO2PPM:         800,
    TemperatureC:   20.0,
    PressureHPa:    1013.0,
    Humidity:       0.45,
    Battery:        0.80,
    Status:         aranet.DisplayStatusGreen,
    HasCO2:         true,
    HasTemperature: true,
    HasPressure:    true,
  }

  if !reflect.DeepEqual(got, want) {
    t.Fatalf("CurrentReading(): got %+#v, wanted %+#v", got, want)
  }
}

func TestDevice_CurrentReadingDetailed(t *testing.T) {
  p := connectedAranet()
  p.reads[currentReadingDetailedUuid] = []byte{
    0x20, 0x03, 0x90, 0x01, 0x92, 0x27, 0x2d,
    0x50, 0x01, 0x2c, 0x01, 0x05, 0x00,
  }

  dev, err := aranet.Open(context.Background(), p)

  if err != nil {
    t.Fatalf("Open() got error: %v", err)
  }

  got, err := dev.CurrentReadingDetailed(context.Background())

  if err != nil {
    t.Fatalf("CurrentReadingDetailed() got error: %v", err)
  }

  if got.Interval != 300 || got.Age != 5 {
    t.Errorf("CurrentReadingDetailed(): got interval=%d age=%d, wanted 300/5",
      got.Interval, got.Age)
  }
}

func TestDevice_ReadingRequiresConnection(t *testing.T) {
  p := connectedAranet()

  dev, err := aranet.Open(context.Background(), p)

  if err != nil {
    t.Fatalf("Open() got error: %v", err)
  }

  // connection drops after open: every read must re-check.
  p.connected = false

  if _, err := dev.CurrentReading(context.Background()); !errors.Is(err, aranet.ErrNotConnected) {
    t.Errorf("CurrentReading() after disconnect: got error %v, wanted ErrNotConnected", err)
  }

  if _, err := dev.Interval(context.Background()); !errors.Is(err, aranet.ErrNotConnected) {
    t.Errorf("Interval() after disconnect: got error %v, wanted ErrNotConnected", err)
  }

  if _, err := dev.Name(context.Background()); !errors.Is(err, aranet.ErrNotConnected) {
    t.Errorf("Name() after disconnect: got error %v, wanted ErrNotConnected", err)
  }
}

func TestDevice_Uint16Characteristics(t *testing.T) {
  p := connectedAranet()
  p.reads[intervalUuid] = []byte{0x2c, 0x01}          // 300
  p.reads[secondsSinceUpdateUuid] = []byte{0x39, 0x00} // 57
  p.reads[totalReadingsUuid] = []byte{0x10, 0x27}      // 10000

  dev, err := aranet.Open(context.Background(), p)

  if err != nil {
    t.Fatalf("Open() got error: %v", err)
  }

  ctx := context.Background()

  if got, err := dev.Interval(ctx); err != nil || got != 300 {
    t.Errorf("Interval(): got (%d, %v), wanted (300, nil)", got, err)
  }

  if got, err := dev.LastUpdateAge(ctx); err != nil || got != 57 {
    t.Errorf("LastUpdateAge(): got (%d, %v), wanted (57, nil)", got, err)
  }

  if got, err := dev.TotalReadings(ctx); err != nil || got != 10000 {
    t.Errorf("TotalReadings(): got (%d, %v), wanted (10000, nil)", got, err)
  }
}

func TestDevice_MalformedUint16(t *testing.T) {
  p := connectedAranet()
  p.reads[intervalUuid] = []byte{0x2c}

  dev, err := aranet.Open(context.Background(), p)

  if err != nil {
    t.Fatalf("Open() got error: %v", err)
  }

  if _, err := dev.Interval(context.Background()); !errors.Is(err, aranet.ErrMalformedInput) {
    t.Errorf("Interval() on a 1-byte payload: got error %v, wanted ErrMalformedInput", err)
  }
}

func TestDevice_StringCharacteristics(t *testing.T) {
  p := connectedAranet()
  p.reads[deviceNameUuid] = []byte("Aranet4 12345")
  p.reads[swRevisionUuid] = []byte("v1.2.0")

  dev, err := aranet.Open(context.Background(), p)

  if err != nil {
    t.Fatalf("Open() got error: %v", err)
  }

  if got, err := dev.Name(context.Background()); err != nil || got != "Aranet4 12345" {
    t.Errorf("Name(): got (%q, %v), wanted (\"Aranet4 12345\", nil)", got, err)
  }

  if got, err := dev.FirmwareVersion(context.Background()); err != nil || got != "v1.2.0" {
    t.Errorf("FirmwareVersion(): got (%q, %v), wanted (\"v1.2.0\", nil)", got, err)
  }
}

func TestDevice_InvalidUtf8(t *testing.T) {
  p := connectedAranet()
  p.reads[deviceNameUuid] = []byte{0xff, 0xfe, 0xfd}

  dev, err := aranet.Open(context.Background(), p)

  if err != nil {
    t.Fatalf("Open() got error: %v", err)
  }

  if _, err := dev.Name(context.Background()); !errors.Is(err, aranet.ErrEncoding) {
    t.Errorf("Name() on invalid UTF-8: got error %v, wanted ErrEncoding", err)
  }
}
