package document

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"coatpath/core"
)

// MachineProfile is a per-machine TOML settings overlay. Zero-valued fields
// leave the project's settings untouched, so a profile only states what
// differs on that machine.
type MachineProfile struct {
	Name             string  `toml:"name"`
	CoatingHeight    float64 `toml:"coating_height"`
	SafeHeight       float64 `toml:"safe_height"`
	CoatingSpeed     float64 `toml:"coating_speed"`
	TravelSpeed      float64 `toml:"travel_speed"`
	CoatingWidth     float64 `toml:"coating_width"`
	MaskingClearance float64 `toml:"masking_clearance"`
	Avoidance        string  `toml:"avoidance"`
}

// LoadMachineProfile reads and parses a machine profile file.
func LoadMachineProfile(path string) (MachineProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MachineProfile{}, fmt.Errorf("reading machine profile: %w", err)
	}
	var mp MachineProfile
	if err := toml.Unmarshal(data, &mp); err != nil {
		return MachineProfile{}, fmt.Errorf("parsing machine profile: %w", err)
	}
	switch core.AvoidanceStrategy(mp.Avoidance) {
	case "", core.AvoidLift, core.AvoidContour:
	default:
		return MachineProfile{}, fmt.Errorf("machine profile: unknown avoidance strategy %q", mp.Avoidance)
	}
	return mp, nil
}

// Apply overlays the profile's non-zero fields on the given settings.
func (mp MachineProfile) Apply(s core.Settings) core.Settings {
	if mp.CoatingHeight > 0 {
		s.CoatingHeight = mp.CoatingHeight
	}
	if mp.SafeHeight > 0 {
		s.SafeHeight = mp.SafeHeight
	}
	if mp.CoatingSpeed > 0 {
		s.CoatingSpeed = mp.CoatingSpeed
	}
	if mp.TravelSpeed > 0 {
		s.TravelSpeed = mp.TravelSpeed
	}
	if mp.CoatingWidth > 0 {
		s.CoatingWidth = mp.CoatingWidth
	}
	if mp.MaskingClearance > 0 {
		s.MaskingClearance = mp.MaskingClearance
	}
	if mp.Avoidance != "" {
		s.Avoidance = core.AvoidanceStrategy(mp.Avoidance)
	}
	return s
}
