package integrity

import (
	"errors"

	"track-resolver/core/logger"
	"track-resolver/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/storage", h.HandleStorageCheck)
	group.Get("/database", h.HandleDatabaseCheck)
	group.Get("/file", h.HandleFileCheck)
}

// HandleIntegrityCheck reports the health of every configured backend.
// healthy reflects the active one only.
// @Summary Run All Integrity Checks
// @Description Checks every configured snapshot backend.
// @Tags integrity
// @Produce json
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Security ApiKeyAuth
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	active := h.service.Backend()
	l.Info("Triggering integrity checks", zap.String("backend", active))

	ctx := c.Context()
	report := fiber.Map{"backend": active}
	healthy := false

	if st, err := h.service.CheckStorage(ctx); err == nil {
		report["storage"] = st
		if active == reconcile.BackendObject {
			healthy = st.Status != "missing"
		}
	} else if !errors.Is(err, ErrNotConfigured) {
		report["storage"] = fiber.Map{"status": "error", "error": err.Error()}
	}

	if db, err := h.service.CheckDatabase(); err == nil {
		report["database"] = db
		if active == reconcile.BackendDatabase {
			healthy = db.Matched
		}
	} else if !errors.Is(err, ErrNotConfigured) {
		report["database"] = fiber.Map{"status": "error", "error": err.Error()}
	}

	if active == reconcile.BackendFile {
		file := h.service.CheckFile(ctx)
		report["file"] = file
		healthy = file.Status != "error"
	}

	report["healthy"] = healthy
	if !healthy {
		l.Warn("Snapshot backend unhealthy", zap.String("backend", active))
	}
	return c.JSON(report)
}

// HandleStorageCheck checks the s3 backend and creates the bucket with ?fix=true.
// @Summary Check Storage
// @Description Checks the snapshot bucket and object. Optionally creates the bucket.
// @Tags integrity
// @Produce json
// @Param fix query boolean false "Create missing bucket"
// @Success 200 {object} checks.StorageReport
// @Failure 404 {object} map[string]string "Storage not configured"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Security ApiKeyAuth
// @Router /integrity/storage [get]
func (h *Handler) HandleStorageCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	if c.Query("fix") == "true" {
		if err := h.service.FixStorage(c.Context()); err != nil {
			return h.fail(c, l, "Storage fix failed", err)
		}
	}

	report, err := h.service.CheckStorage(c.Context())
	if err != nil {
		return h.fail(c, l, "Storage check failed", err)
	}
	return c.JSON(report)
}

// HandleDatabaseCheck checks the database backend and migrates with ?fix=true.
// @Summary Check Database
// @Description Compares the resolved_tracks table against the model. Optionally migrates.
// @Tags integrity
// @Produce json
// @Param fix query boolean false "Run migration"
// @Success 200 {object} checks.SchemaReport
// @Failure 404 {object} map[string]string "Database not configured"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Security ApiKeyAuth
// @Router /integrity/database [get]
func (h *Handler) HandleDatabaseCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	if c.Query("fix") == "true" {
		if err := h.service.FixDatabase(c.Context()); err != nil {
			return h.fail(c, l, "Database fix failed", err)
		}
	}

	report, err := h.service.CheckDatabase()
	if err != nil {
		return h.fail(c, l, "Database check failed", err)
	}
	if !report.Matched {
		l.Warn("Schema mismatch", zap.Strings("missing", report.MissingColumns))
	}
	return c.JSON(report)
}

// HandleFileCheck checks the local snapshot file.
// @Summary Check Snapshot File
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.FileReport
// @Security ApiKeyAuth
// @Router /integrity/file [get]
func (h *Handler) HandleFileCheck(c *fiber.Ctx) error {
	return c.JSON(h.service.CheckFile(c.Context()))
}

func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, msg string, err error) error {
	if errors.Is(err, ErrNotConfigured) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	l.Error(msg, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
