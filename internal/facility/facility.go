// Package facility holds the static plant geometry: the room list, the
// percentage-based hotspot rectangles on the overview image, the detector pin
// positions per room, and the gas display metadata. Changing values here only
// changes visual placement.
package facility

import (
	"os"
	"path/filepath"
)

// Hotspot is a clickable rectangle on the overview image, in percent of the
// image width/height.
type Hotspot struct {
	Left   float64 `yaml:"left" json:"left"`
	Top    float64 `yaml:"top" json:"top"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Pin is one gas detector position on a room image, in percent.
type Pin struct {
	Label string  `yaml:"label" json:"label"`
	X     float64 `yaml:"x" json:"x"`
	Y     float64 `yaml:"y" json:"y"`
	Units string  `yaml:"units" json:"units"`
}

// roomOrder fixes the display order of rooms across the overview page,
// the quick-open row, and seeding.
var roomOrder = []string{
	"Room 1",
	"Room 2",
	"Room 3",
	"Room Production",
	"Room Production 2",
	"Room 12 17",
}

var overviewCandidates = []string{"Overview.png", "Overview (1).png", "overview.png"}

// roomFileCandidates lists the image filenames tried for each room, first
// existing match wins. The plant images were exported with inconsistent names.
var roomFileCandidates = map[string][]string{
	"Room 1":            {"Room 1.png"},
	"Room 2":            {"Room 2 (1).png", "Room 2.png"},
	"Room 3":            {"Room 3 (1).png", "Room 3.png"},
	"Room Production":   {"Room Production.png"},
	"Room Production 2": {"Room Production 2.png", "Room Production2.png"},
	"Room 12 17":        {"Room 12 17.png", "Room 12.png", "Room 17.png"},
}

var defaultHotspots = map[string]Hotspot{
	"Room 1":            {Left: 63, Top: 2, Width: 14, Height: 16},
	"Room 2":            {Left: 67, Top: 43, Width: 14, Height: 16},
	"Room 3":            {Left: 60, Top: 19, Width: 14, Height: 16},
	"Room 12 17":        {Left: 36, Top: -5, Width: 14, Height: 16},
	"Room Production":   {Left: 24, Top: 28, Width: 24, Height: 22},
	"Room Production 2": {Left: 26, Top: 6, Width: 24, Height: 22},
}

var defaultPins = map[string][]Pin{
	"Room 1":     {{Label: "NH₃", X: 35, Y: 35, Units: "ppm"}},
	"Room 2":     {{Label: "CO", X: 93, Y: 33, Units: "ppm"}},
	"Room 3":     {{Label: "O₂", X: 28, Y: 72, Units: "%"}},
	"Room 12 17": {{Label: "Ethanol", X: 58, Y: 36, Units: "ppm"}},
	"Room Production": {
		{Label: "O₂", X: 78, Y: 72, Units: "%"},
		{Label: "NH₃", X: 30, Y: 28, Units: "ppm"},
	},
	"Room Production 2": {
		{Label: "O₂", X: 70, Y: 45, Units: "%"},
		{Label: "H₂S", X: 70, Y: 65, Units: "ppm"},
	},
}

// GasRanges gives the display measurement range per gas label.
var GasRanges = map[string]string{
	"NH₃":     "0–50 ppm",
	"CO":      "0–200 ppm",
	"O₂":      "19–23 %",
	"CH₄":     "0–100 %LEL",
	"H₂S":     "0–100 ppm",
	"Ethanol": "0–1000 ppm",
}

var gasColours = map[string]string{
	"NH₃": "#38bdf8", "CO": "#f97316", "O₂": "#22c55e", "H₂": "#a855f7",
	"CH₄": "#f59e0b", "Ethanol": "#ef4444", "CO₂": "#06b6d4", "H₂S": "#eab308",
}

// GasColour returns the overlay colour for a gas label, with a neutral default.
func GasColour(label string) string {
	if c, ok := gasColours[label]; ok {
		return c
	}
	return "#38bdf8"
}

// Rooms returns the room names in display order.
func Rooms() []string {
	out := make([]string, len(roomOrder))
	copy(out, roomOrder)
	return out
}

// IsRoom reports whether name is a configured room.
func IsRoom(name string) bool {
	_, ok := roomFileCandidates[name]
	return ok
}

// ImageCandidates returns the ordered candidate filenames for a room image.
func ImageCandidates(room string) []string {
	return roomFileCandidates[room]
}

// OverviewImage resolves the overview image path, first existing candidate wins.
func OverviewImage(imagesDir string) (string, bool) {
	return firstExisting(imagesDir, overviewCandidates)
}

// RoomImage resolves the image path for a room, first existing candidate wins.
func RoomImage(imagesDir, room string) (string, bool) {
	return firstExisting(imagesDir, roomFileCandidates[room])
}

func firstExisting(dir string, names []string) (string, bool) {
	for _, n := range names {
		p := filepath.Join(dir, n)
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}
