package aranet

import "fmt"

// Version is a firmware version as embedded in the advertisement.
type Version struct {
  Major, Minor, Patch uint8
}

func (v Version) String() string {
  return fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
}
