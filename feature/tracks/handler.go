package tracks

import (
	"errors"
	"net/url"

	"track-resolver/core/logger"
	"track-resolver/core/reconcile"
	"track-resolver/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for resolved tracks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the track routes. Run routes go first so they
// are not captured by the two-segment record route.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/tracks")
	group.Get("/", h.HandleList)
	group.Get("/summary", h.HandleSummary)
	group.Post("/rerun", h.HandleRerun)
	group.Get("/runs", h.HandleListRuns)
	group.Get("/runs/:id", h.HandleGetRun)
	group.Get("/:feedId/:itemId", h.HandleGet)
}

// HandleGet returns one record. Item ids that are URLs must be path-escaped.
// @Summary Get Track
// @Description Returns the stored record for one reference.
// @Tags tracks
// @Produce json
// @Param feedId path string true "Feed identifier"
// @Param itemId path string true "Item identifier, path-escaped"
// @Success 200 {object} reconcile.ResolvedTrack
// @Failure 400 {object} map[string]string "Invalid identifier"
// @Failure 404 {object} map[string]string "Not Found"
// @Security ApiKeyAuth
// @Router /tracks/{feedId}/{itemId} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	feedID, err := url.PathUnescape(c.Params("feedId"))
	if err != nil {
		return badRequest(c, "invalid feed id")
	}
	itemID, err := url.PathUnescape(c.Params("itemId"))
	if err != nil {
		return badRequest(c, "invalid item id")
	}

	track, err := h.service.Get(feedID, itemID)
	if err != nil {
		if errors.Is(err, reconcile.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		logger.WithRayID(h.service.logger, c).Error("Track lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(track)
}

// HandleList lists records in ?state= (default placeholder) with
// ?offset= and ?limit= paging.
// @Summary List Tracks
// @Description Lists records in one resolution state.
// @Tags tracks
// @Produce json
// @Param state query string false "unresolved, placeholder, resolved or failed" default(placeholder)
// @Param offset query int false "Records to skip"
// @Param limit query int false "Page size"
// @Success 200 {object} Page
// @Failure 400 {object} map[string]string "Unknown state"
// @Security ApiKeyAuth
// @Router /tracks [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	state, err := reconcile.ParseState(c.Query("state", string(reconcile.StatePlaceholder)))
	if err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(h.service.List(state, utils.ToInt(c.Query("offset")), utils.ToInt(c.Query("limit"))))
}

// HandleSummary returns record counts per state.
// @Summary Track Summary
// @Tags tracks
// @Produce json
// @Success 200 {object} Summary
// @Security ApiKeyAuth
// @Router /tracks/summary [get]
func (h *Handler) HandleSummary(c *fiber.Ctx) error {
	return c.JSON(h.service.Summary())
}

// HandleRerun starts a background re-resolution pass over ?state=.
// @Summary Start Rerun
// @Description Re-resolves every record in the given state in the background.
// @Tags tracks
// @Produce json
// @Param state query string false "State to re-resolve" default(placeholder)
// @Success 202 {object} Run
// @Failure 400 {object} map[string]string "Unknown state"
// @Failure 409 {object} map[string]string "Pass already running for state"
// @Failure 503 {object} map[string]string "Resolution unavailable"
// @Security ApiKeyAuth
// @Router /tracks/rerun [post]
func (h *Handler) HandleRerun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	state, err := reconcile.ParseState(c.Query("state", string(reconcile.StatePlaceholder)))
	if err != nil {
		return badRequest(c, err.Error())
	}

	run, err := h.service.StartRerun(state)
	if err != nil {
		if errors.Is(err, ErrRunInProgress) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error(), "id": run.ID})
		}
		l.Error("Rerun could not start", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusAccepted).JSON(run)
}

// HandleListRuns returns retained background passes.
// @Summary List Runs
// @Tags tracks
// @Produce json
// @Success 200 {array} Run
// @Security ApiKeyAuth
// @Router /tracks/runs [get]
func (h *Handler) HandleListRuns(c *fiber.Ctx) error {
	return c.JSON(h.service.Runs())
}

// HandleGetRun returns one background pass and its report once finished.
// @Summary Get Run
// @Tags tracks
// @Produce json
// @Param id path string true "Run identifier"
// @Success 200 {object} Run
// @Failure 404 {object} map[string]string "Not Found"
// @Security ApiKeyAuth
// @Router /tracks/runs/{id} [get]
func (h *Handler) HandleGetRun(c *fiber.Ctx) error {
	run, ok := h.service.Run(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "run not found"})
	}
	return c.JSON(run)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
