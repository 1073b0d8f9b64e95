// Package controller wires HTTP requests to the history store, the threshold
// evaluator, the AI responder and the page compositor. Navigation state comes
// from URL query parameters (`room`, `det`), not from server-side sessions.
package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"SafetyHMI.dashboard/internal/ai"
	"SafetyHMI.dashboard/internal/compositor"
	"SafetyHMI.dashboard/internal/facility"
	"SafetyHMI.dashboard/internal/history"
	"SafetyHMI.dashboard/internal/models"
	"SafetyHMI.dashboard/internal/threshold"
	"SafetyHMI.dashboard/internal/utils"
)

const (
	trendWindow      = 90 * time.Minute
	statsWindow      = 24 * time.Hour
	projectionWindow = 2 * time.Hour
)

// roomOps tracks per-room operator toggles between requests.
type roomOps struct {
	Simulate bool
	Shutter  bool
}

// Controller handles all HTTP traffic for the HMI.
type Controller struct {
	store     history.Store
	layout    *facility.Layout
	comp      *compositor.Compositor
	responder *ai.Responder
	logbook   *ai.Log

	mu         sync.Mutex
	ops        map[string]*roomOps
	lastStatus map[string]threshold.Status
}

func New(store history.Store, layout *facility.Layout, comp *compositor.Compositor, responder *ai.Responder, logbook *ai.Log) *Controller {
	return &Controller{
		store:      store,
		layout:     layout,
		comp:       comp,
		responder:  responder,
		logbook:    logbook,
		ops:        make(map[string]*roomOps),
		lastStatus: make(map[string]threshold.Status),
	}
}

func (c *Controller) roomState(room string) *roomOps {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.ops[room]
	if !ok {
		st = &roomOps{}
		c.ops[room] = st
	}
	return st
}

// checkTransition appends an incident entry when a detector's status changes
// into WARN or ALARM.
func (c *Controller) checkTransition(room, label string, status threshold.Status, message string) {
	key := history.Pair{Room: room, Label: label}.Key()
	c.mu.Lock()
	prev, seen := c.lastStatus[key]
	c.lastStatus[key] = status
	c.mu.Unlock()

	if seen && prev != status && status != threshold.StatusOK {
		c.logbook.Append(room, fmt.Sprintf("%s: %s", status, message))
	}
}

// clearTransitions forgets the last seen status for the given detectors, so
// an acknowledged condition that persists raises a fresh incident entry.
func (c *Controller) clearTransitions(room string, labels []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, label := range labels {
		delete(c.lastStatus, history.Pair{Room: room, Label: label}.Key())
	}
}

// ── Pages ─────────────────────────────────────────────────────────────────────

// HandleIndex serves the overview when no `room` query parameter is present,
// and the named room page otherwise.
func (c *Controller) HandleIndex(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	if room == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := c.comp.Overview(w); err != nil {
			log.Printf("Rendering overview: %v", err)
		}
		return
	}
	c.renderRoom(w, r, room, "", "")
}

// HandleRoom serves the canonical /rooms/{room} page.
func (c *Controller) HandleRoom(w http.ResponseWriter, r *http.Request) {
	c.renderRoom(w, r, mux.Vars(r)["room"], "", "")
}

func (c *Controller) renderRoom(w http.ResponseWriter, r *http.Request, room, answer, backend string) {
	if !facility.IsRoom(room) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "<!DOCTYPE html><html><body><p>Unknown room %q. <a href=\"/\">Back to overview</a></p></body></html>", room)
		return
	}

	selected := r.URL.Query().Get("det")
	if selected != "" {
		if _, ok := c.layout.PinFor(room, selected); !ok {
			selected = ""
		}
	}

	state := c.roomState(room)
	view := compositor.RoomView{
		Room:          room,
		PinValues:     make(map[string]string),
		PinClasses:    make(map[string]string),
		SelectedLabel: selected,
		Simulate:      state.Simulate,
		ShutterActive: state.Shutter,
		Answer:        answer,
		Backend:       backend,
	}

	for _, pin := range c.layout.PinsFor(room) {
		latest, err := c.store.LatestValue(r.Context(), room, pin.Label)
		if err != nil {
			view.PinValues[pin.Label] = "—"
			continue
		}
		view.PinValues[pin.Label] = fmt.Sprintf("%.1f %s", latest.Value, pin.Units)

		status, message := threshold.StatusFor(pin.Label, latest.Value)
		c.checkTransition(room, pin.Label, status, message)
		switch status {
		case threshold.StatusWarn:
			view.PinClasses[pin.Label] = "warn"
		case threshold.StatusAlarm:
			view.PinClasses[pin.Label] = "alarm"
		}
	}

	if selected != "" {
		if sv, err := c.selectedView(r, room, selected); err == nil {
			view.Selected = sv
		} else {
			log.Printf("Building trend panel for %s/%s: %v", room, selected, err)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.comp.Room(w, view); err != nil {
		log.Printf("Rendering room %s: %v", room, err)
	}
}

func (c *Controller) selectedView(r *http.Request, room, label string) (*compositor.SelectedView, error) {
	ctx := r.Context()
	latest, err := c.store.LatestValue(ctx, room, label)
	if err != nil {
		return nil, err
	}
	series, err := c.store.FetchSeries(ctx, room, label, latest.Time.Add(-trendWindow), latest.Time)
	if err != nil {
		return nil, err
	}
	mean, std, err := c.store.Stats(ctx, room, label, statsWindow)
	if err != nil {
		return nil, err
	}

	status, message := threshold.StatusFor(label, latest.Value)
	policy, hasPolicy := threshold.PolicyFor(label)

	sv := &compositor.SelectedView{
		Label:   label,
		Status:  string(status),
		Class:   strings.ToLower(string(status)),
		Message: message,
		Value:   fmt.Sprintf("%.2f %s", latest.Value, policy.Units),
		Mean:    fmt.Sprintf("%.2f", mean),
		Std:     fmt.Sprintf("%.2f", std),
		Range:   facility.GasRanges[label],
	}
	if hasPolicy {
		sv.Warn = fmt.Sprintf("%g", policy.Warn)
		sv.Alarm = fmt.Sprintf("%g", policy.Alarm)
		if mins, ok := threshold.Project(series, policy, projectionWindow); ok {
			sv.Projection = strconv.Itoa(mins)
		}
		sv.TrendPoints, sv.WarnY = compositor.Sparkline(series, policy.Warn)
	} else {
		sv.TrendPoints, _ = compositor.Sparkline(series, 0)
	}
	return sv, nil
}

// HandleIncidentExport serves the on-demand HTML incident log.
func (c *Controller) HandleIncidentExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.comp.Incidents(w, c.logbook.ByRoom()); err != nil {
		log.Printf("Rendering incident export: %v", err)
	}
}

// ── JSON API ──────────────────────────────────────────────────────────────────

// HandleSeries returns a time slice of one detector's history.
// Query: room, det required; start/stop unix seconds, defaulting to the last
// hour.
func (c *Controller) HandleSeries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	room := query.Get("room")
	det := query.Get("det")
	if room == "" {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeMissingParameter, "room is required", nil, http.StatusBadRequest))
		return
	}
	if det == "" {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeMissingParameter, "det is required", nil, http.StatusBadRequest))
		return
	}

	now := time.Now()
	start, err := unixParam(query.Get("start"), now.Add(-time.Hour))
	if err != nil {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeInvalidFormat, "start must be a unix timestamp", nil, http.StatusBadRequest))
		return
	}
	stop, err := unixParam(query.Get("stop"), now)
	if err != nil {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeInvalidFormat, "stop must be a unix timestamp", nil, http.StatusBadRequest))
		return
	}

	points, err := c.store.FetchSeries(r.Context(), room, det, start, stop)
	if err != nil {
		c.respondStoreError(w, room, det, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, models.SeriesResponse{Room: room, Detector: det, Points: points})
}

// HandleStatus returns the classified latest reading for one detector.
func (c *Controller) HandleStatus(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	room := query.Get("room")
	det := query.Get("det")
	if room == "" || det == "" {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeMissingParameter, "room and det are required", nil, http.StatusBadRequest))
		return
	}

	latest, err := c.store.LatestValue(r.Context(), room, det)
	if err != nil {
		c.respondStoreError(w, room, det, err)
		return
	}
	mean, std, err := c.store.Stats(r.Context(), room, det, statsWindow)
	if err != nil {
		c.respondStoreError(w, room, det, err)
		return
	}

	status, message := threshold.StatusFor(det, latest.Value)
	c.checkTransition(room, det, status, message)

	resp := models.DetectorStatus{
		Room:     room,
		Detector: det,
		Value:    latest.Value,
		Status:   string(status),
		Message:  message,
		Mean:     mean,
		Std:      std,
	}
	if policy, ok := threshold.PolicyFor(det); ok {
		resp.Units = policy.Units
		resp.Warn = policy.Warn
		resp.Alarm = policy.Alarm
		series, err := c.store.FetchSeries(r.Context(), room, det, latest.Time.Add(-trendWindow), latest.Time)
		if err == nil {
			if mins, ok := threshold.Project(series, policy, projectionWindow); ok {
				resp.ProjectionMinutes = &mins
			}
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// HandleChat is the JSON chat endpoint.
func (c *Controller) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeBadRequest, "Invalid request payload", nil, http.StatusBadRequest))
		return
	}
	defer r.Body.Close()

	if req.Room != "" && !facility.IsRoom(req.Room) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeRoomNotFound, fmt.Sprintf("unknown room %q", req.Room), nil, http.StatusNotFound))
		return
	}

	answer, backend := c.ask(r, req.Prompt, req.Room, req.Detector, req.ForceRule)
	utils.RespondWithJSON(w, http.StatusOK, models.ChatResponse{Answer: answer, Backend: backend})
}

// HandleRoomChat is the form-post chat flow used by the room page.
func (c *Controller) HandleRoomChat(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	answer, backend := c.ask(r, r.FormValue("prompt"), room, r.FormValue("det"), false)
	c.renderRoom(w, r, room, answer, backend)
}

// ask assembles the AI context from the live detector snapshot and records
// the exchange in the incident log.
func (c *Controller) ask(r *http.Request, prompt, room, det string, forceRule bool) (string, string) {
	actx := ai.Context{Room: room, Gas: det, Status: string(threshold.StatusOK)}
	if room != "" {
		actx.Simulate = c.roomState(room).Simulate
	}

	if room != "" && det != "" {
		if latest, err := c.store.LatestValue(r.Context(), room, det); err == nil {
			v := latest.Value
			actx.Value = &v
			status, _ := threshold.StatusFor(det, v)
			actx.Status = string(status)
			if policy, ok := threshold.PolicyFor(det); ok {
				actx.Units = policy.Units
				warn, alarm := policy.Warn, policy.Alarm
				actx.Warn = &warn
				actx.Alarm = &alarm
				if series, err := c.store.FetchSeries(r.Context(), room, det, latest.Time.Add(-trendWindow), latest.Time); err == nil {
					if mins, ok := threshold.Project(series, policy, projectionWindow); ok {
						actx.ProjectionMinutes = &mins
					}
					for _, p := range tailPoints(series, 30) {
						actx.RecentSeries = append(actx.RecentSeries, p.Value)
					}
				}
			}
			if mean, std, err := c.store.Stats(r.Context(), room, det, statsWindow); err == nil {
				actx.Mean = &mean
				actx.Std = &std
			}
		}
	}

	answer, backend := c.responder.Ask(r.Context(), prompt, actx, forceRule)
	if room != "" {
		c.logbook.Append(room, fmt.Sprintf("AI [%s]: %s", backend, firstLine(answer)))
	}
	return answer, backend
}

// HandleOps applies an operator action to a room, from either a JSON body or
// the room page's form post.
func (c *Controller) HandleOps(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]
	if !facility.IsRoom(room) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeRoomNotFound, fmt.Sprintf("unknown room %q", room), nil, http.StatusNotFound))
		return
	}

	var req models.OpsRequest
	isForm := !strings.Contains(r.Header.Get("Content-Type"), "application/json")
	if isForm {
		if err := r.ParseForm(); err != nil {
			utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeBadRequest, "Invalid form payload", nil, http.StatusBadRequest))
			return
		}
		req.Action = r.FormValue("action")
		req.Detector = r.FormValue("det")
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeBadRequest, "Invalid request payload", nil, http.StatusBadRequest))
			return
		}
		defer r.Body.Close()
	}

	labels, apiErr := c.targetLabels(room, req.Detector)
	if apiErr != nil {
		utils.RespondWithError(w, *apiErr)
		return
	}

	state := c.roomState(room)
	switch req.Action {
	case history.OpSimulate:
		state.Simulate = true
	case history.OpVentilate:
		state.Simulate = false
	case history.OpShutter:
		state.Shutter = true
	case history.OpReset:
		state.Simulate = false
		state.Shutter = false
	case history.OpAck:
		c.clearTransitions(room, labels)
	default:
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeBadRequest,
			fmt.Sprintf("unknown action %q (want simulate|ventilate|shutter|reset|ack)", req.Action), nil, http.StatusBadRequest))
		return
	}

	for _, label := range labels {
		if err := c.store.ApplyOps(r.Context(), room, label, req.Action); err != nil {
			log.Printf("Applying %s to %s/%s: %v", req.Action, room, label, err)
		}
	}
	c.logbook.Append(room, fmt.Sprintf("Operator action: %s (%s)", req.Action, strings.Join(labels, ", ")))

	if isForm {
		target := "/rooms/" + room
		if req.Detector != "" {
			target += "?det=" + req.Detector
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("%s applied to %s", req.Action, room)})
}

// HandleSpike injects a flat spike segment into recent history. Demo helper.
func (c *Controller) HandleSpike(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]
	if !facility.IsRoom(room) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeRoomNotFound, fmt.Sprintf("unknown room %q", room), nil, http.StatusNotFound))
		return
	}

	var req models.SpikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeBadRequest, "Invalid request payload", nil, http.StatusBadRequest))
		return
	}
	defer r.Body.Close()

	labels, apiErr := c.targetLabels(room, req.Detector)
	if apiErr != nil {
		utils.RespondWithError(w, *apiErr)
		return
	}
	if req.Magnitude == 0 {
		req.Magnitude = 5.0
	}
	if req.DurationMin <= 0 {
		req.DurationMin = 10
	}

	duration := time.Duration(req.DurationMin) * time.Minute
	at := time.Now().Add(-duration)
	for _, label := range labels {
		if err := c.store.InjectSpike(r.Context(), room, label, at, duration, req.Magnitude); err != nil {
			c.respondStoreError(w, room, label, err)
			return
		}
	}
	c.logbook.Append(room, fmt.Sprintf("Spike injected: +%.1f over %d min (%s)", req.Magnitude, req.DurationMin, strings.Join(labels, ", ")))
	utils.RespondWithJSON(w, http.StatusCreated, map[string]string{"message": "spike injected"})
}

// HandleMappings returns the effective hotspot and pin geometry.
func (c *Controller) HandleMappings(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, c.layout)
}

// HandleHealth is the liveness probe.
func (c *Controller) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (c *Controller) targetLabels(room, det string) ([]string, *models.APIError) {
	if det != "" {
		if _, ok := c.layout.PinFor(room, det); !ok {
			apiErr := models.NewAPIError(models.ErrorCodeDetectorNotFound, fmt.Sprintf("no detector %q in %s", det, room), nil, http.StatusNotFound)
			return nil, &apiErr
		}
		return []string{det}, nil
	}
	pins := c.layout.PinsFor(room)
	labels := make([]string, 0, len(pins))
	for _, p := range pins {
		labels = append(labels, p.Label)
	}
	if len(labels) == 0 {
		apiErr := models.NewAPIError(models.ErrorCodeDetectorNotFound, fmt.Sprintf("no detectors configured for %s", room), nil, http.StatusNotFound)
		return nil, &apiErr
	}
	return labels, nil
}

func (c *Controller) respondStoreError(w http.ResponseWriter, room, det string, err error) {
	if errors.Is(err, history.ErrUnknownDetector) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeDetectorNotFound,
			fmt.Sprintf("no history for %s/%s", room, det), nil, http.StatusNotFound))
		return
	}
	utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeInternalServerError,
		fmt.Sprintf("error fetching data: %v", err), nil, http.StatusInternalServerError))
}

func unixParam(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0), nil
}

func tailPoints(pts []models.Point, n int) []models.Point {
	if len(pts) <= n {
		return pts
	}
	return pts[len(pts)-n:]
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
