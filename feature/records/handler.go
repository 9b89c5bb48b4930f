package records

import (
	"errors"
	"fmt"

	"record-sync/core/document"
	"record-sync/core/logger"
	"record-sync/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for record syncs.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the records routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/records")
	group.Get("/objects", h.HandleListObjects)
	group.Post("/:entity/sync", h.HandleSync)
	group.Post("/:entity/sync/object", h.HandleSyncObject)
}

// HandleSync reconciles the record document in the request body.
// The body is a JSON (or YAML, by content type) array of objects, or an
// object wrapping the array at the "root" query path.
// @Summary Sync Records
// @Description Reconcile the posted records into the entity table.
// @Tags records
// @Accept json,x-yaml
// @Produce json
// @Param entity path string true "Entity (table) name"
// @Param local_key query string false "Local key column (default remote_id)"
// @Param remote_key query string false "Remote key path (default id)"
// @Param key_type query string false "Key type: auto, int or string"
// @Param coerce query bool false "Let digit strings and integers match"
// @Param ops query string false "Permitted operations, e.g. insert,update"
// @Param scope query string false "Expression restricting the local records"
// @Param scope_field query string false "Column equalities as column:value,..."
// @Param fields query string false "Field overrides as remoteField:column,..."
// @Param root query string false "Dotted path to the record array"
// @Param dry_run query bool false "Compute the plan without writing"
// @Success 200 {object} reconcile.Result "Sync Result"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /records/{entity}/sync [post]
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	entity := c.Params("entity")

	opts, err := syncOptions(c)
	if err != nil {
		return h.fail(c, l, err)
	}

	format := document.DetectFormat("", c.Get(fiber.HeaderContentType))
	records, err := document.DecodeBytes(c.Body(), format, c.Query("root"))
	if err != nil {
		return h.fail(c, l, err)
	}

	l.Info("Syncing records", zap.String("entity", entity), zap.Int("records", len(records)))
	result, err := h.service.Sync(c.Context(), entity, records, opts)
	if err != nil {
		return h.fail(c, l, err)
	}
	return c.JSON(result)
}

// HandleSyncObject reconciles a record document read from object storage.
// @Summary Sync Records From Storage
// @Description Reconcile the records of a stored JSON or YAML document into the entity table.
// @Tags records
// @Produce json
// @Param entity path string true "Entity (table) name"
// @Param object query string true "Object name in the bucket"
// @Param local_key query string false "Local key column (default remote_id)"
// @Param remote_key query string false "Remote key path (default id)"
// @Param key_type query string false "Key type: auto, int or string"
// @Param coerce query bool false "Let digit strings and integers match"
// @Param ops query string false "Permitted operations, e.g. insert,update"
// @Param scope query string false "Expression restricting the local records"
// @Param scope_field query string false "Column equalities as column:value,..."
// @Param fields query string false "Field overrides as remoteField:column,..."
// @Param root query string false "Dotted path to the record array"
// @Param dry_run query bool false "Compute the plan without writing"
// @Success 200 {object} reconcile.Result "Sync Result"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 503 {object} map[string]string "Storage Not Configured"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /records/{entity}/sync/object [post]
func (h *Handler) HandleSyncObject(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	entity := c.Params("entity")

	object := c.Query("object")
	if object == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "object query parameter is required"})
	}

	opts, err := syncOptions(c)
	if err != nil {
		return h.fail(c, l, err)
	}

	l.Info("Syncing records from storage", zap.String("entity", entity), zap.String("object", object))
	result, err := h.service.SyncObject(c.Context(), entity, object, c.Query("root"), opts)
	if err != nil {
		return h.fail(c, l, err)
	}
	return c.JSON(result)
}

// HandleListObjects lists the record documents stored under "prefix".
// @Summary List Record Documents
// @Tags records
// @Produce json
// @Param prefix query string false "Object name prefix"
// @Success 200 {object} map[string][]string "Object Names"
// @Failure 503 {object} map[string]string "Storage Not Configured"
// @Router /records/objects [get]
func (h *Handler) HandleListObjects(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	names, err := h.service.Objects(c.Context(), c.Query("prefix"))
	if err != nil {
		return h.fail(c, l, err)
	}
	return c.JSON(fiber.Map{"objects": names})
}

func syncOptions(c *fiber.Ctx) (SyncOptions, error) {
	fields, err := ParsePairs(c.Query("fields"))
	if err != nil {
		return SyncOptions{}, fmt.Errorf("%w: fields: %w", reconcile.ErrInvalidRequest, err)
	}
	scopeFields, err := ParsePairs(c.Query("scope_field"))
	if err != nil {
		return SyncOptions{}, fmt.Errorf("%w: scope_field: %w", reconcile.ErrInvalidRequest, err)
	}
	return SyncOptions{
		LocalKey:    c.Query("local_key"),
		RemoteKey:   c.Query("remote_key"),
		KeyType:     c.Query("key_type"),
		Coerce:      c.QueryBool("coerce"),
		Operations:  c.Query("ops"),
		Scope:       c.Query("scope"),
		ScopeFields: scopeFields,
		Fields:      fields,
		DryRun:      c.QueryBool("dry_run"),
	}, nil
}

func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, reconcile.ErrInvalidRequest),
		errors.Is(err, reconcile.ErrMalformedRecord):
		status = fiber.StatusBadRequest
	case errors.Is(err, ErrNoStorage):
		status = fiber.StatusServiceUnavailable
	}

	if status >= fiber.StatusInternalServerError {
		l.Error("Sync request failed", zap.Error(err))
	} else {
		l.Warn("Sync request rejected", zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
