package aranet

// TemperatureCToF converts Celsius to Fahrenheit.
func TemperatureCToF(c float32) float32 {
  return c * 1.8 + 32
}

// TemperatureFToC converts Fahrenheit to Celsius.
func TemperatureFToC(f float32) float32 {
  return (f - 32) / 1.8
}

// PressureHPaToAtm converts hectopascals to standard atmospheres.
func PressureHPaToAtm(hpa float32) float32 {
  return hpa / 1013.25
}

// PressureAtmToHPa converts standard atmospheres to hectopascals.
func PressureAtmToHPa(atm float32) float32 {
  return atm * 1013.25
}
