package aranet

import "errors"

var (
  // ErrNotConnected is returned when an operation requires an active connection
  // to the device but the peripheral reports being disconnected.
  ErrNotConnected = errors.New("device is not connected")
  // ErrUnsupportedDevice is returned when the peripheral does not expose the
  // Aranet service. This includes Aranet4 units running firmware older than
  // v1.2.0, which advertise a different (legacy) service UUID.
  ErrUnsupportedDevice = errors.New("not an Aranet4 device (or firmware is older than v1.2.0)")
  // ErrMalformedInput is returned when a payload has the wrong length or
  // contains a reserved/undefined enumerated value.
  ErrMalformedInput = errors.New("malformed input")
  // ErrEncoding is returned when a string characteristic is not valid UTF-8.
  ErrEncoding = errors.New("invalid character encoding")
)
