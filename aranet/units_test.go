package aranet_test

import (
  "math"
  "testing"

  "github.com/robertof/go-aranet4-exporter/aranet"
)

func closeEnough(a, b float32) bool {
  return math.Abs(float64(a - b)) < 1e-4
}

func TestTemperatureConversionRoundTrip(t *testing.T) {
  for _, c := range []float32{-40, 0, 20, 25.05, 100} {
    got := aranet.TemperatureFToC(aranet.TemperatureCToF(c))

    if !closeEnough(got, c) {
      t.Errorf("TemperatureFToC(TemperatureCToF(%v)): got %v", c, got)
    }
  }

  if f := aranet.TemperatureCToF(20); !closeEnough(f, 68) {
    t.Errorf("TemperatureCToF(20): got %v, wanted 68", f)
  }
}

func TestPressureConversionRoundTrip(t *testing.T) {
  for _, hpa := range []float32{900, 1013.25, 1050.5} {
    got := aranet.PressureAtmToHPa(aranet.PressureHPaToAtm(hpa))

    if !closeEnough(got, hpa) {
      t.Errorf("PressureAtmToHPa(PressureHPaToAtm(%v)): got %v", hpa, got)
    }
  }

  if atm := aranet.PressureHPaToAtm(1013.25); !closeEnough(atm, 1) {
    t.Errorf("PressureHPaToAtm(1013.25): got %v, wanted 1", atm)
  }
}

func TestConversionsPreserveAbsence(t *testing.T) {
  var r aranet.CurrentReading

  if _, ok := r.TemperatureF(); ok {
    t.Error("TemperatureF() on an absent temperature reported a value")
  }

  if _, ok := r.PressureAtm(); ok {
    t.Error("PressureAtm() on an absent pressure reported a value")
  }

  r.TemperatureC, r.HasTemperature = 20, true
  r.PressureHPa, r.HasPressure = 1013.25, true

  if f, ok := r.TemperatureF(); !ok || !closeEnough(f, 68) {
    t.Errorf("TemperatureF(): got (%v, %v), wanted (68, true)", f, ok)
  }

  if atm, ok := r.PressureAtm(); !ok || !closeEnough(atm, 1) {
    t.Errorf("PressureAtm(): got (%v, %v), wanted (1, true)", atm, ok)
  }
}
