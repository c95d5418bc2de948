package metrics

import (
  "time"

  "github.com/prometheus/client_golang/prometheus"
  "github.com/robertof/go-aranet4-exporter/discovery"
)

var (
  descCO2 = prometheus.NewDesc(
    "sensor_co2_ppm",
    "CO2 concentration reported by the sensor in parts per million.",
    []string{"device"},
    nil,
  )

  descTemperature = prometheus.NewDesc(
    "sensor_temperature_celsius",
    "Temperature reported by the sensor in Celsius.",
    []string{"device"},
    nil,
  )

  descPressure = prometheus.NewDesc(
    "sensor_pressure_hpa",
    "Atmospheric pressure reported by the sensor in hectopascals.",
    []string{"device"},
    nil,
  )

  descHumidity = prometheus.NewDesc(
    "sensor_humidity_ratio",
    "Relative humidity reported by the sensor, from 0 to 1.",
    []string{"device"},
    nil,
  )

  descBattery = prometheus.NewDesc(
    "sensor_battery_ratio",
    "Battery level reported by the sensor, from 0 to 1.",
    []string{"device"},
    nil,
  )

  descDisplayStatus = prometheus.NewDesc(
    "sensor_display_status",
    "CO2 level indicator shown on the device display. 1 = green, 2 = yellow, 3 = red.",
    []string{"device"},
    nil,
  )

  descAge = prometheus.NewDesc(
    "sensor_measurement_age_seconds",
    "Age of the current sample in seconds.",
    []string{"device"},
    nil,
  )

  descInterval = prometheus.NewDesc(
    "sensor_measurement_interval_seconds",
    "Time between samples in seconds.",
    []string{"device"},
    nil,
  )
)

// CollectFunc returns the latest discovered devices keyed by peripheral
// identity, along with when each advertisement arrived.
type CollectFunc func() map[string]TimestampedDevice

type TimestampedDevice struct {
  discovery.DiscoveredDevice
  Time time.Time
}

type collector struct {
  CollectFunc
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
  prometheus.DescribeByCollect(c, ch)
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
  for peripheral, dev := range c.CollectFunc() {
    if !dev.HasReading {
      continue
    }

    reading := dev.Reading

    emit := func(desc *prometheus.Desc, value float64) {
      metric := prometheus.MustNewConstMetric(
        desc,
        prometheus.GaugeValue,
        value,
        peripheral,
      )

      ch <- prometheus.NewMetricWithTimestamp(dev.Time, metric)
    }

    if reading.HasCO2 {
      emit(descCO2, float64(reading.CO2PPM))
    }

    if reading.HasTemperature {
      emit(descTemperature, float64(reading.TemperatureC))
    }

    if reading.HasPressure {
      emit(descPressure, float64(reading.PressureHPa))
    }

    emit(descHumidity, float64(reading.Humidity))
    emit(descBattery, float64(reading.Battery))
    emit(descDisplayStatus, float64(reading.Status))
    emit(descAge, float64(reading.Age))
    emit(descInterval, float64(reading.Interval))
  }
}

// RegisterCollector registers an Aranet4 reading collector backed by f.
func RegisterCollector(f CollectFunc, reg prometheus.Registerer) {
  c := &collector{f}

  reg.MustRegister(c)
}
