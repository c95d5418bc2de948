package aranet

import (
  "fmt"

  "github.com/pkg/errors"
)

// ManufacturerData is the status block prefixing every Aranet4 manufacturer
// data advertisement. It is an immutable snapshot of a single advertisement.
type ManufacturerData struct {
  Disconnected     bool
  CalibrationState CalibrationState
  DfuActive        bool
  Integrations     bool
  Version          Version
}

// ParseManufacturerData decodes the 7-byte advertisement status block.
//
// Byte 0 is a bitfield: bit 0 = disconnected, bits 2-3 = calibration state,
// bit 4 = DFU active, bit 5 = smart home integrations enabled. Bytes 1-3 hold
// the firmware version as (patch, minor, major) -- reversed relative to how
// the version is usually written.
func ParseManufacturerData(data []byte) (md ManufacturerData, err error) {
  if len(data) != 7 {
    return md, errors.Wrapf(ErrMalformedInput,
      "unexpected manufacturer data length (%d), want 7", len(data))
  }

  md.Disconnected = data[0] & (1 << 0) != 0
  md.DfuActive = data[0] & (1 << 4) != 0
  md.Integrations = data[0] & (1 << 5) != 0
  md.Version = Version{Major: data[3], Minor: data[2], Patch: data[1]}

  md.CalibrationState, err = CalibrationStateFromRaw((data[0] >> 2) & 0x03)

  if err != nil {
    return ManufacturerData{}, err
  }

  return md, nil
}

func (md ManufacturerData) String() string {
  return fmt.Sprintf(
    "ManufacturerData[Version=%v,Calibration=%v,Disconnected=%v,DfuActive=%v,Integrations=%v]",
    md.Version, md.CalibrationState, md.Disconnected, md.DfuActive, md.Integrations)
}
