package version

import "fmt"

type Version struct {
	MajorNumber int64
	MinorNumber int64
	PatchNumber int64
}

// String formats the version as major.minor.patch
func (m Version) String() string {
	return fmt.Sprintf("%d.%d.%d", m.MajorNumber, m.MinorNumber, m.PatchNumber)
}

var AppVersion = Version{
	MajorNumber: 0,
	MinorNumber: 1,
	PatchNumber: 0,
}
