package gcode

import "fmt"

// Profile is a post-processor configuration for one controller family. The
// motion words cover everything the coating process needs: rapids, feeds,
// valve on/off, and comment syntax.
type Profile struct {
	Name        string
	Description string

	StartCode []string // commands at start of file
	EndCode   []string // commands at end of file

	RapidMove string // G0 or equivalent
	FeedMove  string // G1 or equivalent
	NozzleOn  string // open the dispense valve
	NozzleOff string // close the dispense valve

	CommentPrefix string
	DecimalPlaces int
}

var profiles = []Profile{
	{
		Name:          "grbl",
		Description:   "Grbl 1.1 controllers, valve on spindle enable",
		StartCode:     []string{"G90", "G21", "G17"},
		EndCode:       []string{"M2"},
		RapidMove:     "G0",
		FeedMove:      "G1",
		NozzleOn:      "M3 S1000",
		NozzleOff:     "M5",
		CommentPrefix: ";",
		DecimalPlaces: 3,
	},
	{
		Name:          "marlin",
		Description:   "Marlin-based machines, valve on fan output",
		StartCode:     []string{"G90", "G21"},
		EndCode:       []string{"M84"},
		RapidMove:     "G0",
		FeedMove:      "G1",
		NozzleOn:      "M106 S255",
		NozzleOff:     "M107",
		CommentPrefix: ";",
		DecimalPlaces: 3,
	},
	{
		Name:          "generic",
		Description:   "Plain RS-274, valve on M8/M9 coolant codes",
		StartCode:     []string{"G90", "G21", "G94"},
		EndCode:       []string{"M30"},
		RapidMove:     "G0",
		FeedMove:      "G1",
		NozzleOn:      "M8",
		NozzleOff:     "M9",
		CommentPrefix: ";",
		DecimalPlaces: 4,
	},
}

// ProfileNames lists the available profile names in registration order.
func ProfileNames() []string {
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Name
	}
	return names
}

// ProfileByName looks up a post-processor profile.
func ProfileByName(name string) (Profile, error) {
	for _, p := range profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("unknown gcode profile %q", name)
}
