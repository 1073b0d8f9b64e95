package facility

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRooms(t *testing.T) {
	rooms := Rooms()
	require.Len(t, rooms, 6)
	assert.Equal(t, "Room 1", rooms[0])
	assert.Equal(t, "Room 12 17", rooms[5])

	for _, room := range rooms {
		assert.True(t, IsRoom(room), room)
		assert.NotEmpty(t, ImageCandidates(room), room)
	}
	assert.False(t, IsRoom("Room 99"))
}

func TestDefaultLayoutGeometry(t *testing.T) {
	layout := DefaultLayout()

	for _, room := range Rooms() {
		_, ok := layout.HotspotFor(room)
		assert.True(t, ok, "missing hotspot for %s", room)
		assert.NotEmpty(t, layout.PinsFor(room), "missing pins for %s", room)
	}

	pin, ok := layout.PinFor("Room 2", "CO")
	require.True(t, ok)
	assert.Equal(t, 93.0, pin.X)
	assert.Equal(t, "ppm", pin.Units)

	_, ok = layout.PinFor("Room 2", "O₂")
	assert.False(t, ok)

	pins := layout.PinsFor("Room Production")
	assert.Len(t, pins, 2)
}

func TestDefaultLayoutIsACopy(t *testing.T) {
	a := DefaultLayout()
	a.Hotspots["Room 1"] = Hotspot{Left: 1, Top: 1, Width: 1, Height: 1}
	a.Pins["Room 1"][0].Label = "Xe"

	b := DefaultLayout()
	assert.Equal(t, 63.0, b.Hotspots["Room 1"].Left)
	assert.Equal(t, "NH₃", b.Pins["Room 1"][0].Label)
}

func TestApplyOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mappings.yaml")
	override := `
hotspots:
  Room 2:
    left: 10
    top: 20
    width: 30
    height: 40
  Room 99:
    left: 1
    top: 1
    width: 1
    height: 1
pins:
  Room 3:
    - label: CO₂
      x: 50
      y: 50
      units: ppm
`
	require.NoError(t, os.WriteFile(path, []byte(override), 0644))

	layout := DefaultLayout()
	layout.ApplyOverrides(path)

	h, ok := layout.HotspotFor("Room 2")
	require.True(t, ok)
	assert.Equal(t, Hotspot{Left: 10, Top: 20, Width: 30, Height: 40}, h)

	_, ok = layout.HotspotFor("Room 99")
	assert.False(t, ok, "unknown rooms must be skipped")

	pins := layout.PinsFor("Room 3")
	require.Len(t, pins, 1)
	assert.Equal(t, "CO₂", pins[0].Label)

	// Untouched rooms keep their defaults.
	h, _ = layout.HotspotFor("Room 1")
	assert.Equal(t, 63.0, h.Left)
}

func TestApplyOverridesMissingAndCorrupt(t *testing.T) {
	layout := DefaultLayout()
	layout.ApplyOverrides(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Equal(t, DefaultLayout(), layout, "missing file must change nothing")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("hotspots: [not a map"), 0644))
	layout.ApplyOverrides(bad)
	assert.Equal(t, DefaultLayout(), layout, "corrupt file must change nothing")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	layout := DefaultLayout()
	layout.Hotspots["Room 2"] = Hotspot{Left: 11, Top: 22, Width: 33, Height: 44}
	require.NoError(t, layout.Save(path))

	loaded := DefaultLayout()
	loaded.ApplyOverrides(path)
	assert.Equal(t, layout.Hotspots["Room 2"], loaded.Hotspots["Room 2"])
}

func TestImageResolution(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Room 2.png"), []byte("png"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Overview (1).png"), []byte("png"), 0644))

	p, ok := RoomImage(dir, "Room 2")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "Room 2.png"), p)

	_, ok = RoomImage(dir, "Room 3")
	assert.False(t, ok)

	p, ok = OverviewImage(dir)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "Overview (1).png"), p)
}

func TestGasColour(t *testing.T) {
	assert.Equal(t, "#f97316", GasColour("CO"))
	assert.Equal(t, "#38bdf8", GasColour("Kr"), "unknown gases use the neutral colour")
}
