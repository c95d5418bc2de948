package aranet

import (
  "encoding/binary"
  "fmt"
  "io"
  "strings"

  "github.com/pkg/errors"
)

// CurrentReading is one environment sample as reported by the device.
//
// CO2, temperature and pressure are optional: the device reserves a high bit
// in the raw encoding to mean "no reading" (e.g. a stale or uncalibrated
// sensor), which surfaces here as the matching Has* flag being false. An
// absent field is never reported as zero.
type CurrentReading struct {
  // In ppm.
  CO2PPM uint16
  // In Celsius.
  TemperatureC float32
  // In hPa.
  PressureHPa float32
  // From 0 to 1.
  Humidity float32
  // From 0 to 1.
  Battery float32
  Status  DisplayStatus

  HasCO2         bool
  HasTemperature bool
  HasPressure    bool
}

// CurrentReadingDetailed is a CurrentReading plus the device sampling interval
// and the age of the sample, both in seconds.
type CurrentReadingDetailed struct {
  CurrentReading

  Interval uint16
  Age      uint16
}

// ParseCurrentReading decodes the 9-byte current readings record.
func ParseCurrentReading(data []byte) (r CurrentReading, err error) {
  if len(data) != 9 {
    return r, errors.Wrapf(ErrMalformedInput,
      "unexpected current reading length (%d), want 9", len(data))
  }

  bo := binary.LittleEndian

  if co2 := bo.Uint16(data[0:2]); co2 >> 15 != 1 {
    r.CO2PPM = co2
    r.HasCO2 = true
  }

  if temp := bo.Uint16(data[2:4]); (temp >> 14) & 1 != 1 {
    r.TemperatureC = float32(temp) * 0.05
    r.HasTemperature = true
  }

  if pressure := bo.Uint16(data[4:6]); pressure >> 15 != 1 {
    r.PressureHPa = float32(pressure) * 0.1
    r.HasPressure = true
  }

  r.Humidity = float32(data[6]) / 100.0
  r.Battery = float32(data[7]) / 100.0

  r.Status, err = DisplayStatusFromRaw(data[8])

  if err != nil {
    return CurrentReading{}, err
  }

  return r, nil
}

// ParseCurrentReadingDetailed decodes the 13-byte detailed current readings
// record: a 9-byte current reading followed by interval and age.
func ParseCurrentReadingDetailed(data []byte) (r CurrentReadingDetailed, err error) {
  if len(data) != 13 {
    return r, errors.Wrapf(ErrMalformedInput,
      "unexpected detailed current reading length (%d), want 13", len(data))
  }

  r.CurrentReading, err = ParseCurrentReading(data[:9])

  if err != nil {
    return CurrentReadingDetailed{}, err
  }

  bo := binary.LittleEndian
  r.Interval = bo.Uint16(data[9:11])
  r.Age = bo.Uint16(data[11:13])

  return r, nil
}

// TemperatureF returns the temperature in Fahrenheit, if present.
func (r CurrentReading) TemperatureF() (float32, bool) {
  if !r.HasTemperature {
    return 0, false
  }

  return TemperatureCToF(r.TemperatureC), true
}

// PressureAtm returns the pressure in standard atmospheres, if present.
func (r CurrentReading) PressureAtm() (float32, bool) {
  if !r.HasPressure {
    return 0, false
  }

  return PressureHPaToAtm(r.PressureHPa), true
}

func (r CurrentReading) String() string {
  var fields []string

  if r.HasCO2 {
    fields = append(fields, fmt.Sprintf("CO2=%dppm", r.CO2PPM))
  }

  if r.HasTemperature {
    fields = append(fields, fmt.Sprintf("Temperature=%.1fC", r.TemperatureC))
  }

  if r.HasPressure {
    fields = append(fields, fmt.Sprintf("Pressure=%.1fhPa", r.PressureHPa))
  }

  fields = append(fields,
    fmt.Sprintf("Humidity=%.0f%%", r.Humidity * 100),
    fmt.Sprintf("Battery=%.0f%%", r.Battery * 100),
    fmt.Sprintf("Status=%v", r.Status))

  return fmt.Sprintf("Reading[%v]", strings.Join(fields, ","))
}

// Render writes the human-readable multi-line representation of the sample.
func (r CurrentReadingDetailed) Render(w io.Writer) {
  fmt.Fprintf(w, "Measurement Age: %d/%ds\n", r.Age, r.Interval)
  fmt.Fprintf(w, "Battery: %.0f%%\n", r.Battery * 100)

  if r.HasCO2 {
    fmt.Fprintf(w, "CO2: %d PPM\n", r.CO2PPM)
  }

  fmt.Fprintf(w, "CO2 Status: %v\n", r.Status)

  if f, ok := r.TemperatureF(); ok {
    fmt.Fprintf(w, "Temperature: %.1f°F (%.1f°C)\n", f, r.TemperatureC)
  }

  fmt.Fprintf(w, "Rel. Humidity: %.0f%%\n", r.Humidity * 100)

  if atm, ok := r.PressureAtm(); ok {
    fmt.Fprintf(w, "Pressure: %.3f atm (%.0f hPa)\n", atm, r.PressureHPa)
  }
}

func (r CurrentReadingDetailed) String() string {
  var b strings.Builder

  r.Render(&b)

  return b.String()
}
