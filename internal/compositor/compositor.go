// Package compositor renders the HMI pages: the overview floor plan with
// clickable room hotspots, per-room views with detector pins, the gas-cloud
// overlay, and the incident-log export. Images are embedded as data URIs so
// the pages are self-contained.
package compositor

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"SafetyHMI.dashboard/internal/ai"
	"SafetyHMI.dashboard/internal/facility"
	"SafetyHMI.dashboard/internal/models"
)

var pageTmpls = map[string]*template.Template{}

func init() {
	for name, content := range map[string]string{
		"overview":  tmplOverview,
		"room":      tmplRoom,
		"incidents": tmplIncidents,
	} {
		pageTmpls[name] = template.Must(template.New(name).Parse(tmplBase + content))
	}
}

// Compositor renders pages against one images directory and layout.
type Compositor struct {
	imagesDir string
	layout    *facility.Layout
	cache     *imageCache
}

func New(imagesDir string, layout *facility.Layout) *Compositor {
	return &Compositor{
		imagesDir: imagesDir,
		layout:    layout,
		cache:     newImageCache(),
	}
}

type hotspotView struct {
	Room string
	facility.Hotspot
}

type pinView struct {
	Label string
	X     float64
	Y     float64
	Value string
	Range string
	Class string
}

// SelectedView is the side-panel data for the active detector.
type SelectedView struct {
	Label       string
	Status      string
	Class       string
	Message     string
	Value       string
	Warn        string
	Alarm       string
	Mean        string
	Std         string
	Projection  string
	Range       string
	TrendPoints string
	WarnY       string
}

// RoomView is everything the room template needs. The controller assembles
// it from the history store and the threshold evaluator.
type RoomView struct {
	Room          string
	PinValues     map[string]string // label -> formatted latest value
	PinClasses    map[string]string // label -> "", "warn", "alarm", "sel"
	SelectedLabel string
	Selected      *SelectedView
	Simulate      bool
	ShutterActive bool
	Answer        string
	Backend       string
}

type basePage struct {
	Title          string
	NavRooms       []string
	OverviewActive bool
	ImageURI       string
	ImageErr       string
}

// Overview renders the facility overview. Hotspots appear only for rooms
// whose image file exists; a missing overview image degrades to an inline
// error with the quick-open row still usable.
func (c *Compositor) Overview(w io.Writer) error {
	page := struct {
		basePage
		Hotspots []hotspotView
	}{
		basePage: basePage{Title: "Overview", NavRooms: facility.Rooms(), OverviewActive: true},
	}

	if path, ok := facility.OverviewImage(c.imagesDir); ok {
		uri, err := c.cache.DataURI(path)
		if err != nil {
			page.ImageErr = fmt.Sprintf("Cannot load overview image: %v", err)
		} else {
			page.ImageURI = uri
		}
	} else {
		page.ImageErr = "Overview image not found in /" + c.imagesDir + "."
	}

	if page.ImageErr == "" {
		for _, room := range facility.Rooms() {
			if _, ok := facility.RoomImage(c.imagesDir, room); !ok {
				continue
			}
			h, ok := c.layout.HotspotFor(room)
			if !ok {
				continue
			}
			page.Hotspots = append(page.Hotspots, hotspotView{Room: room, Hotspot: h})
		}
	}

	return pageTmpls["overview"].ExecuteTemplate(w, "base", page)
}

// Room renders a room page from the assembled view.
func (c *Compositor) Room(w io.Writer, v RoomView) error {
	gas := ""
	if pins := c.layout.PinsFor(v.Room); len(pins) > 0 {
		gas = pins[0].Label
	}
	if v.SelectedLabel != "" {
		gas = v.SelectedLabel
	}

	page := struct {
		basePage
		Pins          []pinView
		SelectedLabel string
		Selected      *SelectedView
		Simulate      bool
		ShutterActive bool
		GasColour     string
		Answer        string
		Backend       string
	}{
		basePage:      basePage{Title: v.Room, NavRooms: facility.Rooms()},
		SelectedLabel: v.SelectedLabel,
		Selected:      v.Selected,
		Simulate:      v.Simulate,
		ShutterActive: v.ShutterActive,
		GasColour:     facility.GasColour(gas),
		Answer:        v.Answer,
		Backend:       v.Backend,
	}

	if path, ok := facility.RoomImage(c.imagesDir, v.Room); ok {
		uri, err := c.cache.DataURI(path)
		if err != nil {
			page.ImageErr = fmt.Sprintf("Cannot load image for %s: %v", v.Room, err)
		} else {
			page.ImageURI = uri
		}
	} else {
		page.ImageErr = fmt.Sprintf("No image found for %s in %s/.", v.Room, c.imagesDir)
	}

	for _, p := range c.layout.PinsFor(v.Room) {
		pv := pinView{
			Label: p.Label,
			X:     p.X,
			Y:     p.Y,
			Value: v.PinValues[p.Label],
			Range: facility.GasRanges[p.Label],
			Class: v.PinClasses[p.Label],
		}
		if p.Label == v.SelectedLabel && pv.Class == "" {
			pv.Class = "sel"
		}
		page.Pins = append(page.Pins, pv)
	}

	return pageTmpls["room"].ExecuteTemplate(w, "base", page)
}

type incidentGroup struct {
	Room    string
	Entries []ai.Entry
}

// Incidents renders the on-demand incident-log export, grouped per room in
// display order.
func (c *Compositor) Incidents(w io.Writer, byRoom map[string][]ai.Entry) error {
	page := struct {
		basePage
		GeneratedAt string
		Rooms       []incidentGroup
	}{
		basePage:    basePage{Title: "Incident Log", NavRooms: facility.Rooms()},
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
	}
	for _, room := range facility.Rooms() {
		if entries := byRoom[room]; len(entries) > 0 {
			page.Rooms = append(page.Rooms, incidentGroup{Room: room, Entries: entries})
		}
	}
	return pageTmpls["incidents"].ExecuteTemplate(w, "base", page)
}

// Sparkline converts a series into SVG polyline points on a 320x90 viewBox,
// and returns the y pixel of the warn threshold when it falls inside the
// value range.
func Sparkline(points []models.Point, warn float64) (string, string) {
	const w, h, pad = 320.0, 90.0, 6.0
	if len(points) == 0 {
		return "", ""
	}

	lo, hi := points[0].Value, points[0].Value
	for _, p := range points {
		if p.Value < lo {
			lo = p.Value
		}
		if p.Value > hi {
			hi = p.Value
		}
	}
	if hi-lo < 1e-9 {
		hi = lo + 1
	}

	yFor := func(v float64) float64 {
		return h - pad - (v-lo)/(hi-lo)*(h-2*pad)
	}

	var b strings.Builder
	for i, p := range points {
		x := pad + float64(i)/float64(max(len(points)-1, 1))*(w-2*pad)
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.1f,%.1f", x, yFor(p.Value))
	}

	warnY := ""
	if warn >= lo && warn <= hi {
		warnY = fmt.Sprintf("%.1f", yFor(warn))
	}
	return b.String(), warnY
}
