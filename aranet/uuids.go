package aranet

import (
  "github.com/robertof/go-aranet4-exporter/ble"
)

// ManufacturerID is the Bluetooth SIG assigned company identifier found in
// Aranet4 advertisements. 0x0702 belongs to 'Akciju sabiedriba "SAF TEHNIKA"',
// the parent company behind the Aranet brand.
const ManufacturerID uint16 = 0x0702

// Services.
const (
  // ServiceUUID is the Aranet service advertised by firmware v1.2.0 and later.
  ServiceUUID ble.UUID = "0000fce0-0000-1000-8000-00805f9b34fb"
  // LegacyServiceUUID was advertised by firmware before v1.2.0. Devices
  // exposing only this service are rejected by Open().
  LegacyServiceUUID ble.UUID = "f0cd1400-95da-4f4b-9ac8-aa55d312af0c"

  genericServiceUUID ble.UUID = "00001800-0000-1000-8000-00805f9b34fb"
  commonServiceUUID  ble.UUID = "0000180a-0000-1000-8000-00805f9b34fb"
)

// Readable characteristics, from the Aranet4 GATT table.
const (
  characteristicCurrentReading         ble.UUID = "f0cd1503-95da-4f4b-9ac8-aa55d312af0c"
  characteristicCurrentReadingDetailed ble.UUID = "f0cd3001-95da-4f4b-9ac8-aa55d312af0c"
  characteristicInterval               ble.UUID = "f0cd2002-95da-4f4b-9ac8-aa55d312af0c"
  characteristicSecondsSinceUpdate     ble.UUID = "f0cd2004-95da-4f4b-9ac8-aa55d312af0c"
  characteristicTotalReadings          ble.UUID = "f0cd2001-95da-4f4b-9ac8-aa55d312af0c"

  characteristicDeviceName ble.UUID = "00002a00-0000-1000-8000-00805f9b34fb"
  characteristicSwRevision ble.UUID = "00002a26-0000-1000-8000-00805f9b34fb"
)
