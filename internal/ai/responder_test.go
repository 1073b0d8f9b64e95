package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SafetyHMI.dashboard/internal/config"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func alarmContext() Context {
	return Context{
		Room:              "Room 2",
		Gas:               "CO",
		Status:            "ALARM",
		Value:             floatPtr(62.5),
		Units:             "ppm",
		Warn:              floatPtr(35),
		Alarm:             floatPtr(50),
		Mean:              floatPtr(8.1),
		Std:               floatPtr(0.4),
		ProjectionMinutes: intPtr(12),
	}
}

func TestRuleBasedAnswer(t *testing.T) {
	answer := ruleBased("what should I do?", alarmContext())

	assert.Contains(t, answer, "Room: **Room 2**")
	assert.Contains(t, answer, "Gas: **CO**")
	assert.Contains(t, answer, "Status: **ALARM**")
	assert.Contains(t, answer, "μ=8.10")
	assert.Contains(t, answer, "Warn: 35")
	assert.Contains(t, answer, "~12 min")
	assert.Contains(t, answer, "**Do now:**")
	assert.Contains(t, answer, "**Reply:** what should I do?")
}

func TestRuleBasedDeterministic(t *testing.T) {
	c := alarmContext()
	assert.Equal(t, ruleBased("q", c), ruleBased("q", c))
}

func TestRuleBasedEmptyContext(t *testing.T) {
	answer := ruleBased("", Context{})
	assert.Contains(t, answer, "Unknown room")
	assert.Contains(t, answer, "Unknown gas")
	assert.Contains(t, answer, "Normal conditions")
	assert.NotContains(t, answer, "**Reply:**")
}

func TestRuleBasedStatusBranches(t *testing.T) {
	warn := ruleBased("", Context{Status: "WARN"})
	assert.Contains(t, warn, "**Mitigate:**")

	sim := ruleBased("", Context{Simulate: true})
	assert.Contains(t, sim, "Simulation mode active")
}

func testConfig(key, baseURL string) config.Config {
	return config.Config{
		OpenAIKey:     key,
		OpenAIBaseURL: baseURL,
		AIModel:       "test-model",
		AITimeout:     2 * time.Second,
	}
}

func TestAskForceRule(t *testing.T) {
	r := NewResponder(testConfig("sk-test", "http://127.0.0.1:1"))
	answer, backend := r.Ask(context.Background(), "hello", alarmContext(), true)
	assert.Equal(t, "Rule-based (forced)", backend)
	assert.Contains(t, answer, "Room: **Room 2**")
}

func TestAskNoKey(t *testing.T) {
	r := NewResponder(testConfig("", "http://127.0.0.1:1"))
	assert.False(t, r.Available())
	_, backend := r.Ask(context.Background(), "hello", alarmContext(), false)
	assert.Equal(t, "Rule-based", backend)
}

func TestAskHostedSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Ventilate the room."}}]}`))
	}))
	defer srv.Close()

	r := NewResponder(testConfig("sk-test", srv.URL))
	answer, backend := r.Ask(context.Background(), "hello", alarmContext(), false)
	assert.Equal(t, "OpenAI", backend)
	assert.Equal(t, "Ventilate the room.", answer)
}

func TestAskHostedErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewResponder(testConfig("sk-test", srv.URL))
	answer, backend := r.Ask(context.Background(), "hello", alarmContext(), false)
	assert.Equal(t, "Rule-based", backend)
	assert.Contains(t, answer, "Room: **Room 2**")
}

func TestAskHostedEmptyContentFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	r := NewResponder(testConfig("sk-test", srv.URL))
	_, backend := r.Ask(context.Background(), "hello", alarmContext(), false)
	assert.Equal(t, "Rule-based", backend)
}

func TestAskUnreachableBackendFallsBack(t *testing.T) {
	r := NewResponder(testConfig("sk-test", "http://127.0.0.1:1"))
	_, backend := r.Ask(context.Background(), "hello", alarmContext(), false)
	assert.Equal(t, "Rule-based", backend)
}

func TestLogAppendAndGrouping(t *testing.T) {
	logbook := NewLog()
	logbook.Append("Room 2", "WARN: CO rising")
	logbook.Append("Room 5", "Operator action: ventilate (O₂)")
	logbook.Append("Room 2", "ALARM: CO at 55ppm")

	assert.Equal(t, 3, logbook.Len())

	byRoom := logbook.ByRoom()
	require.Len(t, byRoom["Room 2"], 2)
	require.Len(t, byRoom["Room 5"], 1)
	assert.Equal(t, "WARN: CO rising", byRoom["Room 2"][0].Text)
	assert.NotEmpty(t, byRoom["Room 2"][0].ID)
	assert.False(t, byRoom["Room 2"][0].At.After(byRoom["Room 2"][1].At))
}
