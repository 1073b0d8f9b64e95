package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"SafetyHMI.dashboard/internal/controller"
	"SafetyHMI.dashboard/internal/middleware"
	"SafetyHMI.dashboard/internal/models"
	"SafetyHMI.dashboard/internal/utils"
)

// NewRouter builds the full route table for the HMI.
func NewRouter(c *controller.Controller) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging)

	// Pages.
	router.HandleFunc("/", c.HandleIndex).Methods(http.MethodGet)
	router.HandleFunc("/rooms/{room}", c.HandleRoom).Methods(http.MethodGet)
	router.HandleFunc("/rooms/{room}/chat", c.HandleRoomChat).Methods(http.MethodPost)
	router.HandleFunc("/export/incidents", c.HandleIncidentExport).Methods(http.MethodGet)

	// JSON API.
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/series", c.HandleSeries).Methods(http.MethodGet)
	api.HandleFunc("/status", c.HandleStatus).Methods(http.MethodGet)
	api.HandleFunc("/chat", c.HandleChat).Methods(http.MethodPost)
	api.HandleFunc("/mappings", c.HandleMappings).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{room}/ops", c.HandleOps).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{room}/spike", c.HandleSpike).Methods(http.MethodPost)

	router.HandleFunc("/health", c.HandleHealth).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeNotFound, "resource not found", nil, http.StatusNotFound))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeMethodNotAllowed, "method not allowed", nil, http.StatusMethodNotAllowed))
	})

	return router
}
