package main

import (
  "context"
  "encoding/json"
  "strings"
  "testing"

  "github.com/robertof/go-aranet4-exporter/aranet"
  "github.com/robertof/go-aranet4-exporter/ble"
  "github.com/robertof/go-aranet4-exporter/discovery"
)

type stubAdapter string

func (s stubAdapter) String() string {
  return string(s)
}

func (s stubAdapter) StartScan(_ context.Context, _ ...ble.UUID) error {
  return nil
}

func (s stubAdapter) StopScan() {}

func (s stubAdapter) Events() (<-chan ble.CentralEvent, error) {
  return nil, nil
}

func sampleDevice(withReading bool) discovery.DiscoveredDevice {
  d := discovery.DiscoveredDevice{
    Peripheral: "DB:CC:EB:73:3B:2E",
    Adapter:    stubAdapter("hci0"),
    ManufacturerData: aranet.ManufacturerData{
      Version: aranet.Version{Major: 1, Minor: 2, Patch: 0},
    },
  }

  if withReading {
    d.HasReading = true
    d.Reading = aranet.CurrentReadingDetailed{
      CurrentReading: aranet.CurrentReading{
        CO2PPM:         800,
        TemperatureC:   20.0,
        PressureHPa:    1013.0,
        Humidity:       0.45,
        Battery:        0.80,
        Status:         aranet.DisplayStatusGreen,
        HasCO2:         true,
        HasTemperature: true,
        HasPressure:    true,
      },
      Interval: 300,
      Age:      5,
    }
  }

  return d
}

func TestRenderMonitoring(t *testing.T) {
  d := sampleDevice(true)
  out, state := renderMonitoring(monitoringDescription(d), d.Reading, d.HasReading)

  if state != monitoringStateOk {
    t.Errorf("state: got %d, wanted OK", state)
  }

  if !strings.HasPrefix(out, "ARANET4 OK - Advertisement from DB:CC:EB:73:3B:2E, Firmware v1.2.0") {
    t.Errorf("unexpected status line: %q", out)
  }

  for _, perf := range []string{
    "battery=80%;30;10;0;100",
    "co2_status=1;2;3;1;3",
    "humidity=45%;;;0;100",
    "co2_ppm=800ppm",
    "temperature_f=68.0F",
    "pressure_atm=1.000atm",
  } {
    if !strings.Contains(out, perf) {
      t.Errorf("status line %q is missing perfdata %q", out, perf)
    }
  }
}

func TestRenderMonitoring_NoReading(t *testing.T) {
  d := sampleDevice(false)
  out, state := renderMonitoring(monitoringDescription(d), d.Reading, d.HasReading)

  if state != monitoringStateWarning {
    t.Errorf("state: got %d, wanted WARNING", state)
  }

  if strings.Contains(out, "|") {
    t.Errorf("status line %q carries perfdata without a reading", out)
  }
}

func TestRenderDeviceJson(t *testing.T) {
  out, err := renderDeviceJson(sampleDevice(true), false)

  if err != nil {
    t.Fatalf("renderDeviceJson() got error: %v", err)
  }

  var decoded jsonDevice

  if err := json.Unmarshal([]byte(out), &decoded); err != nil {
    t.Fatalf("renderDeviceJson() emitted invalid JSON: %v", err)
  }

  if decoded.ManufacturerData.Version != "v1.2.0" {
    t.Errorf("version: got %q, wanted v1.2.0", decoded.ManufacturerData.Version)
  }

  if decoded.CurrentReading == nil || decoded.CurrentReading.CO2PPM == nil {
    t.Fatalf("reading was not serialized: %q", out)
  }

  if *decoded.CurrentReading.CO2PPM != 800 {
    t.Errorf("co2_ppm: got %d, wanted 800", *decoded.CurrentReading.CO2PPM)
  }
}

func TestRenderDeviceJson_AbsentFieldsOmitted(t *testing.T) {
  d := sampleDevice(true)
  d.Reading.HasCO2 = false
  d.Reading.HasTemperature = false
  d.Reading.HasPressure = false

  out, err := renderDeviceJson(d, false)

  if err != nil {
    t.Fatalf("renderDeviceJson() got error: %v", err)
  }

  for _, field := range []string{"co2_ppm", "temperature_c", "pressure_hpa"} {
    if strings.Contains(out, field) {
      t.Errorf("output %q contains %q for an absent field", out, field)
    }
  }
}

func TestRenderDeviceText_NoReading(t *testing.T) {
  if out := renderDeviceText(sampleDevice(false)); out != "<no sample data included in advertisement>" {
    t.Errorf("renderDeviceText(): got %q", out)
  }
}
