package facility

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Layout is the effective plant geometry: the built-in tables, optionally
// overridden by a calibration file tuned against the real floor-plan images.
type Layout struct {
	Hotspots map[string]Hotspot `yaml:"hotspots" json:"hotspots"`
	Pins     map[string][]Pin   `yaml:"pins" json:"pins"`
}

// DefaultLayout returns a copy of the built-in geometry tables.
func DefaultLayout() *Layout {
	l := &Layout{
		Hotspots: make(map[string]Hotspot, len(defaultHotspots)),
		Pins:     make(map[string][]Pin, len(defaultPins)),
	}
	for room, h := range defaultHotspots {
		l.Hotspots[room] = h
	}
	for room, pins := range defaultPins {
		cp := make([]Pin, len(pins))
		copy(cp, pins)
		l.Pins[room] = cp
	}
	return l
}

// HotspotFor returns the overview hotspot for a room.
func (l *Layout) HotspotFor(room string) (Hotspot, bool) {
	h, ok := l.Hotspots[room]
	return h, ok
}

// PinsFor returns the detector pins for a room. Rooms without detector
// configuration return an empty slice, not an error.
func (l *Layout) PinsFor(room string) []Pin {
	return l.Pins[room]
}

// PinFor returns the pin with the given gas label in a room.
func (l *Layout) PinFor(room, label string) (Pin, bool) {
	for _, p := range l.Pins[room] {
		if p.Label == label {
			return p, true
		}
	}
	return Pin{}, false
}

// ApplyOverrides merges a calibration file into the layout. Only rooms named
// in the file are touched. A missing file is not an error; a corrupt file is
// logged and ignored so a bad calibration never takes the HMI down.
func (l *Layout) ApplyOverrides(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Cannot read mappings file %s: %v", path, err)
		}
		return
	}

	var o Layout
	if err := yaml.Unmarshal(data, &o); err != nil {
		log.Printf("Ignoring corrupt mappings file %s: %v", path, err)
		return
	}

	for room, h := range o.Hotspots {
		if !IsRoom(room) {
			log.Printf("Mappings file names unknown room %q, skipping", room)
			continue
		}
		l.Hotspots[room] = h
	}
	for room, pins := range o.Pins {
		if !IsRoom(room) {
			log.Printf("Mappings file names unknown room %q, skipping", room)
			continue
		}
		l.Pins[room] = pins
	}
	log.Printf("Applied calibration overrides from %s (%d hotspots, %d pin sets)",
		path, len(o.Hotspots), len(o.Pins))
}

// Save writes the effective layout back to a calibration file.
func (l *Layout) Save(path string) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshalling layout: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing mappings file: %w", err)
	}
	return nil
}
