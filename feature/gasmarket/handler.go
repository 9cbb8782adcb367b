package gasmarket

import (
	"errors"
	"io"

	"gas-market/core/logger"
	"gas-market/core/utils"
	"gas-market/core/validation"
	"gas-market/feature/gasmarket/export"
	"gas-market/feature/gasmarket/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// uploadField is the multipart field carrying the uploaded file.
const uploadField = "arquivo"

// Handler handles HTTP requests for gas market records.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the gas market routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/gas")
	group.Get("/", h.HandleList)
	group.Post("/", h.HandleCreate)
	group.Post("/upsert", h.HandleUpsert)
	group.Post("/merge", h.HandleMerge)
	group.Post("/upload-txt", h.HandleUpload)
	group.Post("/upload-txt/preview", h.HandlePreview)
	group.Get("/exportar-excel", h.HandleExport)
}

// CountResponse reports how many records a batch wrote.
type CountResponse struct {
	Processed int `json:"total_processados"`
}

// MergeResponse reports the result of a merge batch.
type MergeResponse struct {
	Processed int `json:"total_processados"`
	Created   int `json:"criados"`
	Updated   int `json:"atualizados"`
}

// UploadResponse reports the result of a text file upload.
type UploadResponse struct {
	Processed int    `json:"total_processados"`
	File      string `json:"arquivo"`
	Format    string `json:"formato"`
	Delimiter string `json:"delimitador,omitempty"`
	Strategy  string `json:"estrategia"`
	Touched   int64  `json:"registros_substituidos"`
	Created   int    `json:"criados"`
	Updated   int    `json:"atualizados"`
}

// HandleList returns stored records.
// @Summary List gas market records
// @Description List stored records. With only_pending, rows already superseded by a newer upload are left out.
// @Tags gas
// @Produce json
// @Param only_pending query bool false "Only rows without ATUALIZADO_EM"
// @Param apenas_sem_atualizacao query bool false "Alias of only_pending"
// @Success 200 {array} models.Record
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Security BearerAuth
// @Router /gas [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	onlyPending := utils.ToBool(c.Query("only_pending", c.Query("apenas_sem_atualizacao")))

	records, err := h.service.List(c.Context(), onlyPending)
	if err != nil {
		return h.fail(c, l, "List failed", err)
	}
	return c.JSON(records)
}

// HandleCreate stores a single record.
// @Summary Create a gas market record
// @Tags gas
// @Accept json
// @Produce json
// @Param record body models.Candidate true "Record"
// @Success 201 {object} models.Record
// @Failure 400 {object} map[string]any "Validation Error"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Security BearerAuth
// @Router /gas [post]
func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var candidate models.Candidate
	if err := c.BodyParser(&candidate); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body: " + err.Error(),
		})
	}

	record, err := h.service.Create(c.Context(), candidate)
	if err != nil {
		return h.fail(c, l, "Create failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

// HandleUpsert stamps superseded rows and appends the batch.
// @Summary Append a batch of records
// @Description Stamps ATUALIZADO_EM on stored rows sharing a (DATA, PLANILHA, ABA) key with the batch, then inserts every record, in one transaction.
// @Tags gas
// @Accept json
// @Produce json
// @Param records body []models.Candidate true "Records"
// @Success 200 {object} CountResponse
// @Failure 400 {object} map[string]any "Validation Error"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Security BearerAuth
// @Router /gas/upsert [post]
func (h *Handler) HandleUpsert(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var candidates []models.Candidate
	if err := c.BodyParser(&candidates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body: " + err.Error(),
		})
	}

	out, err := h.service.CreateBatch(c.Context(), candidates)
	if err != nil {
		return h.fail(c, l, "Upsert failed", err)
	}
	return c.JSON(CountResponse{Processed: out.Processed()})
}

// HandleMerge updates matching records and inserts the rest.
// @Summary Merge a batch of records
// @Description Updates the stored row matching (DATA, PLANILHA, ABA, PRODUTO) case-insensitively, or inserts a new one. Each record commits on its own.
// @Tags gas
// @Accept json
// @Produce json
// @Param records body []models.Candidate true "Records"
// @Success 200 {object} MergeResponse
// @Failure 400 {object} map[string]any "Validation Error"
// @Failure 500 {object} map[string]any "Internal Server Error"
// @Security BearerAuth
// @Router /gas/merge [post]
func (h *Handler) HandleMerge(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var candidates []models.Candidate
	if err := c.BodyParser(&candidates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body: " + err.Error(),
		})
	}

	out, err := h.service.Merge(c.Context(), candidates)
	if err != nil {
		if out != nil && out.Processed() > 0 {
			l.Error("Merge stopped after partial commit", zap.Int("committed", out.Processed()), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":       err.Error(),
				"criados":     out.Created,
				"atualizados": out.Updated,
			})
		}
		return h.fail(c, l, "Merge failed", err)
	}
	return c.JSON(MergeResponse{Processed: out.Processed(), Created: out.Created, Updated: out.Updated})
}

// HandleUpload ingests a text file.
// @Summary Upload a text file
// @Description Accepts a .txt file holding delimited rows or a JSON list of objects. Encoding and delimiter are detected. Any invalid row rejects the file.
// @Tags gas
// @Accept multipart/form-data
// @Produce json
// @Param arquivo formData file true "Text file"
// @Param strategy query string false "touch_then_append or match_and_merge"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} map[string]any "Validation Error"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Security BearerAuth
// @Router /gas/upload-txt [post]
func (h *Handler) HandleUpload(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	name, payload, err := readUpload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	res, err := h.service.Upload(c.Context(), name, payload, c.Query("strategy"))
	if err != nil {
		return h.fail(c, l, "Upload failed", err)
	}

	l.Info("Upload processed", zap.String("file", name), zap.Int("processed", res.Outcome.Processed()))
	return c.Status(fiber.StatusCreated).JSON(UploadResponse{
		Processed: res.Outcome.Processed(),
		File:      res.File,
		Format:    string(res.Format),
		Delimiter: res.Delimiter,
		Strategy:  string(res.Strategy),
		Touched:   res.Outcome.Touched,
		Created:   res.Outcome.Created,
		Updated:   res.Outcome.Updated,
	})
}

// HandlePreview parses a text file and returns the planned writes.
// @Summary Preview a text file upload
// @Description Parses the file and plans the writes without storing anything. Row errors are listed in the response.
// @Tags gas
// @Accept multipart/form-data
// @Produce json
// @Param arquivo formData file true "Text file"
// @Param strategy query string false "touch_then_append or match_and_merge"
// @Success 200 {object} Preview
// @Failure 400 {object} map[string]any "Validation Error"
// @Security BearerAuth
// @Router /gas/upload-txt/preview [post]
func (h *Handler) HandlePreview(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	name, payload, err := readUpload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	preview, err := h.service.Preview(c.Context(), name, payload, c.Query("strategy"))
	if err != nil {
		return h.fail(c, l, "Preview failed", err)
	}
	return c.JSON(preview)
}

// HandleExport streams a month of records as an xlsx workbook.
// @Summary Export a month to Excel
// @Tags gas
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param mes query int true "Month (1-12)"
// @Param ano query int true "Year (2000 to current)"
// @Success 200 {file} file
// @Failure 400 {object} map[string]any "Validation Error"
// @Failure 404 {object} map[string]string "No records"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Security BearerAuth
// @Router /gas/exportar-excel [get]
func (h *Handler) HandleExport(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	data, name, err := h.service.Export(c.Context(), utils.ToInt(c.Query("mes")), utils.ToInt(c.Query("ano")))
	if err != nil {
		return h.fail(c, l, "Export failed", err)
	}

	c.Attachment(name)
	c.Set(fiber.HeaderContentType, export.ContentType)
	return c.Send(data)
}

// fail maps a service error to a response.
func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, msg string, err error) error {
	switch {
	case validation.IsValidation(err):
		l.Warn(msg, zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   err.Error(),
			"details": validation.Details(err),
		})
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		l.Error(msg, zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

func readUpload(c *fiber.Ctx) (string, []byte, error) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		return "", nil, errors.New("missing file field \"" + uploadField + "\"")
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	payload, err := io.ReadAll(f)
	if err != nil {
		return "", nil, err
	}
	return fh.Filename, payload, nil
}
