package main

import (
  "encoding/json"
  "fmt"
  "strings"

  "github.com/robertof/go-aranet4-exporter/aranet"
  "github.com/robertof/go-aranet4-exporter/discovery"
)

// Monitoring-plugin exit codes.
const (
  monitoringStateOk = iota
  monitoringStateWarning
  monitoringStateCritical
)

type jsonManufacturerData struct {
  Disconnected     bool   `json:"disconnected"`
  CalibrationState string `json:"calibration_state"`
  DfuActive        bool   `json:"dfu_active"`
  Integrations     bool   `json:"integrations"`
  Version          string `json:"version"`
}

type jsonReading struct {
  CO2PPM       *uint16  `json:"co2_ppm,omitempty"`
  TemperatureC *float32 `json:"temperature_c,omitempty"`
  PressureHPa  *float32 `json:"pressure_hpa,omitempty"`
  Humidity     float32  `json:"humidity"`
  Battery      float32  `json:"battery"`
  Status       string   `json:"status"`
  Interval     uint16   `json:"interval"`
  Age          uint16   `json:"age"`
}

type jsonDevice struct {
  PeripheralId     string               `json:"peripheral_id"`
  Adapter          string               `json:"adapter"`
  ManufacturerData jsonManufacturerData `json:"manufacturer_data"`
  CurrentReading   *jsonReading         `json:"current_reading,omitempty"`
}

func toJsonReading(r aranet.CurrentReadingDetailed) *jsonReading {
  out := &jsonReading{
    Humidity: r.Humidity,
    Battery:  r.Battery,
    Status:   r.Status.String(),
    Interval: r.Interval,
    Age:      r.Age,
  }

  if r.HasCO2 {
    co2 := r.CO2PPM
    out.CO2PPM = &co2
  }

  if r.HasTemperature {
    temp := r.TemperatureC
    out.TemperatureC = &temp
  }

  if r.HasPressure {
    pressure := r.PressureHPa
    out.PressureHPa = &pressure
  }

  return out
}

func renderDeviceJson(d discovery.DiscoveredDevice, pretty bool) (string, error) {
  md := d.ManufacturerData

  out := jsonDevice{
    PeripheralId: d.Peripheral,
    Adapter:      d.Adapter.String(),
    ManufacturerData: jsonManufacturerData{
      Disconnected:     md.Disconnected,
      CalibrationState: md.CalibrationState.String(),
      DfuActive:        md.DfuActive,
      Integrations:     md.Integrations,
      Version:          md.Version.String(),
    },
  }

  if d.HasReading {
    out.CurrentReading = toJsonReading(d.Reading)
  }

  var encoded []byte
  var err error

  if pretty {
    encoded, err = json.MarshalIndent(out, "", "  ")
  } else {
    encoded, err = json.Marshal(out)
  }

  if err != nil {
    return "", fmt.Errorf("failed to serialize advertisement as JSON: %w", err)
  }

  return string(encoded), nil
}

func renderDeviceText(d discovery.DiscoveredDevice) string {
  if !d.HasReading {
    return "<no sample data included in advertisement>"
  }

  return d.Reading.String()
}

// renderMonitoring builds a monitoring-plugin status line with perfdata and
// returns it along with the service state to exit with. An advertisement
// without an embedded sample degrades to a warning state.
func renderMonitoring(description string, reading aranet.CurrentReadingDetailed, hasReading bool) (string, int) {
  state, stateText := monitoringStateOk, "OK"

  if !hasReading {
    state, stateText = monitoringStateWarning, "WARNING"
  }

  var perfdata []string

  if hasReading {
    perfdata = append(perfdata,
      fmt.Sprintf("battery=%.0f%%;30;10;0;100", reading.Battery * 100),
      fmt.Sprintf("co2_status=%d;2;3;1;3", reading.Status),
      fmt.Sprintf("humidity=%.0f%%;;;0;100", reading.Humidity * 100))

    if reading.HasCO2 {
      perfdata = append(perfdata, fmt.Sprintf("co2_ppm=%dppm;;;0;", reading.CO2PPM))
    }

    if f, ok := reading.TemperatureF(); ok {
      perfdata = append(perfdata, fmt.Sprintf("temperature_f=%.1fF;;;0;", f))
    }

    if atm, ok := reading.PressureAtm(); ok {
      perfdata = append(perfdata, fmt.Sprintf("pressure_atm=%.3fatm;;;0;", atm))
    }
  }

  line := fmt.Sprintf("ARANET4 %s - %s", stateText, description)

  if len(perfdata) > 0 {
    line += " | " + strings.Join(perfdata, " ")
  }

  return line, state
}

func monitoringDescription(d discovery.DiscoveredDevice) string {
  if !d.HasReading {
    return fmt.Sprintf("Advertisement from %s, Firmware %v (Measurement not included)",
      d.Peripheral, d.ManufacturerData.Version)
  }

  return fmt.Sprintf("Advertisement from %s, Firmware %v (Measurement age %d/%ds)",
    d.Peripheral, d.ManufacturerData.Version, d.Reading.Age, d.Reading.Interval)
}

type jsonActiveReading struct {
  PeripheralId    string       `json:"peripheral_id"`
  Name            string       `json:"name,omitempty"`
  FirmwareVersion string       `json:"firmware_version,omitempty"`
  CurrentReading  *jsonReading `json:"current_reading"`
}

func renderActiveReadingJson(
  peripheralId, name, firmwareVersion string,
  reading aranet.CurrentReadingDetailed,
  pretty bool,
) (string, error) {
  out := jsonActiveReading{
    PeripheralId:    peripheralId,
    Name:            name,
    FirmwareVersion: firmwareVersion,
    CurrentReading:  toJsonReading(reading),
  }

  var encoded []byte
  var err error

  if pretty {
    encoded, err = json.MarshalIndent(out, "", "  ")
  } else {
    encoded, err = json.Marshal(out)
  }

  if err != nil {
    return "", fmt.Errorf("failed to serialize reading as JSON: %w", err)
  }

  return string(encoded), nil
}

// renderNoAdapters reports the "no Bluetooth adapters" condition in the
// requested format, returning the output, whether it should go to stderr and
// the exit code.
func renderNoAdapters(format outputFormat) (string, bool, int) {
  const msg = "Unable to discover devices. No Bluetooth adapters present."

  switch format {
  case formatJSON:
    return fmt.Sprintf(`{"status": "error", "message": %q}`, msg), true, 1
  case formatMonitoring:
    return "ARANET4 CRITICAL - " + msg, false, monitoringStateCritical
  default:
    return msg, true, 1
  }
}
