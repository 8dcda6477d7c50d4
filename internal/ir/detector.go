package ir

import (
	"fmt"
	"strconv"
)

// DetectorType classifies the detector layer an interaction happened in.
type DetectorType int

const (
	DetectorNone DetectorType = iota
	DetectorStrip2D
	DetectorCalorimeter
	DetectorStrip3D
	DetectorScintillator
	DetectorDriftChamber
	DetectorStrip3DDirectional
	DetectorAngerCamera
	DetectorVoxel3D
)

var detectorNames = [...]string{
	DetectorNone:               "none",
	DetectorStrip2D:            "strip2d",
	DetectorCalorimeter:        "calorimeter",
	DetectorStrip3D:            "strip3d",
	DetectorScintillator:       "scintillator",
	DetectorDriftChamber:       "drift_chamber",
	DetectorStrip3DDirectional: "strip3d_directional",
	DetectorAngerCamera:        "anger_camera",
	DetectorVoxel3D:            "voxel3d",
}

func (d DetectorType) String() string {
	if d < 0 || int(d) >= len(detectorNames) {
		return fmt.Sprintf("detector(%d)", int(d))
	}
	return detectorNames[d]
}

// StartsSequence reports whether a Compton sequence may begin in this
// detector type (the D1 tracker layers).
func (d DetectorType) StartsSequence() bool {
	return d == DetectorStrip2D || d == DetectorDriftChamber
}

// ParseDetectorType accepts either the snake_case name or the numeric code.
func ParseDetectorType(s string) (DetectorType, error) {
	for i, n := range detectorNames {
		if n == s {
			return DetectorType(i), nil
		}
	}
	if code, err := strconv.Atoi(s); err == nil && code >= 0 && code < len(detectorNames) {
		return DetectorType(code), nil
	}
	return DetectorNone, fmt.Errorf("unknown detector type %q", s)
}
