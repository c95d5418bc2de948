package aranet

import (
  "strconv"

  "github.com/pkg/errors"
)

// CalibrationState is the CO2 sensor calibration state advertised by the
// device.
type CalibrationState uint8

const (
  CalibrationNotActive CalibrationState = iota
  CalibrationEndRequest
  CalibrationInProgress
  CalibrationError
)

func (c CalibrationState) String() string {
  switch c {
  case CalibrationNotActive:
    return "NotActive"
  case CalibrationEndRequest:
    return "EndRequest"
  case CalibrationInProgress:
    return "InProgress"
  case CalibrationError:
    return "Error"
  default:
    panic("unknown CalibrationState value: " + strconv.Itoa(int(c)))
  }
}

// CalibrationStateFromRaw decodes a calibration state from its 2-bit wire
// encoding. Values above 3 yield ErrMalformedInput.
func CalibrationStateFromRaw(b uint8) (CalibrationState, error) {
  if b > uint8(CalibrationError) {
    return 0, errors.Wrapf(ErrMalformedInput, "unexpected calibration state value: %d", b)
  }

  return CalibrationState(b), nil
}

// DisplayStatus is the traffic-light CO2 level indicator shown on the device
// display.
type DisplayStatus uint8

const (
  DisplayStatusGreen DisplayStatus = iota + 1
  DisplayStatusYellow
  DisplayStatusRed
)

func (s DisplayStatus) String() string {
  switch s {
  case DisplayStatusGreen:
    return "Green"
  case DisplayStatusYellow:
    return "Yellow"
  case DisplayStatusRed:
    return "Red"
  default:
    panic("unknown DisplayStatus value: " + strconv.Itoa(int(s)))
  }
}

// DisplayStatusFromRaw decodes a display status from its 1-byte wire encoding.
// Only 1, 2 and 3 are defined; anything else yields ErrMalformedInput.
func DisplayStatusFromRaw(b uint8) (DisplayStatus, error) {
  if b < uint8(DisplayStatusGreen) || b > uint8(DisplayStatusRed) {
    return 0, errors.Wrapf(ErrMalformedInput, "unexpected display status value: %d", b)
  }

  return DisplayStatus(b), nil
}
