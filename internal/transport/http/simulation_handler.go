package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "pensim/internal/errors"
	"pensim/internal/simulation"
)

// BatchRequest is the body of POST /api/simulate/batch.
type BatchRequest struct {
	ParticipantIDs []string `json:"participant_ids" validate:"required,min=1,max=500,dive,required"`
}

// BatchResponse pairs the successes with how many identifiers were asked
// for; failed items are simply absent.
type BatchResponse struct {
	Requested int                           `json:"requested"`
	Returned  int                           `json:"returned"`
	Results   []*simulation.SimulationResult `json:"results"`
}

// SimulationHandler handles simulation HTTP requests.
type SimulationHandler struct {
	service      SimulationServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
}

// NewSimulationHandler creates a new simulation handler.
func NewSimulationHandler(service SimulationServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *SimulationHandler {
	return &SimulationHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "simulation")),
		errorHandler: errorHandler,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Routes returns the simulation routes.
func (h *SimulationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/{participantID}", h.Simulate)
	r.Post("/batch", h.SimulateBatch)

	return r
}

// Simulate handles GET /api/simulate/{participantID}.
func (h *SimulationHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "participantID")
	if id == "" {
		h.errorHandler.HandleError(w, r,
			apierrors.NewValidationError("participant identifier is required"))
		return
	}

	result, err := h.service.Simulate(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

// SimulateBatch handles POST /api/simulate/batch.
func (h *SimulationHandler) SimulateBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r,
			apierrors.NewValidationError("request body must be valid JSON"))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.errorHandler.HandleError(w, r,
			apierrors.NewValidationError("participant_ids must be a non-empty list of identifiers"))
		return
	}

	results, err := h.service.SimulateBatch(r.Context(), req.ParticipantIDs)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, BatchResponse{
		Requested: len(req.ParticipantIDs),
		Returned:  len(results),
		Results:   results,
	})
}
