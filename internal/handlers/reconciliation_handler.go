package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"match-reconciliation-backend/internal/logger"
	"match-reconciliation-backend/internal/models"
	"match-reconciliation-backend/internal/repository"
	"match-reconciliation-backend/internal/services/matching"
	service "match-reconciliation-backend/internal/services/reconciliation"
	"match-reconciliation-backend/internal/sheet"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
	operatorHeader  = "X-Operator"
	defaultOperator = "operator"
)

type ReconciliationHandler struct {
	service        *service.ReconciliationService
	maxUploadBytes int64
	log            *logrus.Entry
}

func NewReconciliationHandler(s *service.ReconciliationService, maxUploadBytes int64) *ReconciliationHandler {
	return &ReconciliationHandler{
		service:        s,
		maxUploadBytes: maxUploadBytes,
		log:            logger.WithComponent("http"),
	}
}

func (h *ReconciliationHandler) Stats(c *gin.Context) {
	dates, err := dateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), dates)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Upload imports a merged .xlsx or .csv file synchronously.
func (h *ReconciliationHandler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	defer file.Close()

	format, err := sheet.FormatFromFilename(header.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, parseErrors, err := sheet.Read(file, format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for _, pe := range parseErrors {
		h.log.WithFields(logrus.Fields{"file": header.Filename, "line": pe.Line}).Warn(pe.Error)
	}

	result, err := h.service.Import(c.Request.Context(), header.Filename, rows)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"batch":        result.Batch,
		"row_errors":   result.Errors,
		"parse_errors": parseErrors,
	})
}

func (h *ReconciliationHandler) GetBatch(c *gin.Context) {
	id, ok := parseID(c, "id", "batch")
	if !ok {
		return
	}
	batch, err := h.service.GetBatch(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (h *ReconciliationHandler) ListMatches(c *gin.Context) {
	state := models.MatchState(strings.ToUpper(c.DefaultQuery("state", string(models.StatePending))))
	if state != models.StatePending && state != models.StateConfirmed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state must be PENDING or CONFIRMED"})
		return
	}
	page := pageParams(c)
	items, err := h.service.ListMatches(c.Request.Context(), state, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": page.Limit, "offset": page.Offset})
}

func (h *ReconciliationHandler) GetMatch(c *gin.Context) {
	id, ok := parseID(c, "id", "match")
	if !ok {
		return
	}
	m, err := h.service.GetMatch(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	trail, err := h.service.MatchAuditTrail(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": m, "audit": trail})
}

func (h *ReconciliationHandler) ApproveMatch(c *gin.Context) {
	id, ok := parseID(c, "id", "match")
	if !ok {
		return
	}
	m, err := h.service.ApproveMatch(c.Request.Context(), id, operator(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "match approved", "match": m})
}

func (h *ReconciliationHandler) RejectMatch(c *gin.Context) {
	id, ok := parseID(c, "id", "match")
	if !ok {
		return
	}
	m, err := h.service.RejectMatch(c.Request.Context(), id, operator(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "match rejected", "match": m})
}

func (h *ReconciliationHandler) ApproveAll(c *gin.Context) {
	count, err := h.service.ApproveAll(c.Request.Context(), operator(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "bulk approve completed",
		"approved": count,
	})
}

func (h *ReconciliationHandler) ManualMatch(c *gin.Context) {
	var payload struct {
		BankID string `json:"bank_id"`
		SaleID string `json:"sale_id"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	bankID, err := uuid.Parse(payload.BankID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bank ID"})
		return
	}
	saleID, err := uuid.Parse(payload.SaleID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sale ID"})
		return
	}

	m, err := h.service.ManualMatch(c.Request.Context(), bankID, saleID, operator(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "match created", "match": m})
}

func (h *ReconciliationHandler) UnmatchedBank(c *gin.Context) {
	dates, err := dateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page := pageParams(c)
	items, err := h.service.ListUnmatchedBank(c.Request.Context(), dates, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": page.Limit, "offset": page.Offset})
}

func (h *ReconciliationHandler) UnmatchedSales(c *gin.Context) {
	dates, err := dateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page := pageParams(c)
	items, err := h.service.ListUnmatchedSales(c.Request.Context(), dates, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": page.Limit, "offset": page.Offset})
}

func (h *ReconciliationHandler) BankCandidates(c *gin.Context) {
	id, ok := parseID(c, "id", "bank record")
	if !ok {
		return
	}
	criteria, limit := searchParams(c)
	items, err := h.service.CandidatesForBank(c.Request.Context(), id, criteria, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *ReconciliationHandler) SaleCandidates(c *gin.Context) {
	id, ok := parseID(c, "id", "sale record")
	if !ok {
		return
	}
	criteria, limit := searchParams(c)
	items, err := h.service.CandidatesForSale(c.Request.Context(), id, criteria, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Export streams the merged file with the current state of every match.
func (h *ReconciliationHandler) Export(c *gin.Context) {
	rows, err := h.service.Export(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	var (
		buf         bytes.Buffer
		contentType string
	)
	format := sheet.Format(strings.ToLower(c.DefaultQuery("format", string(sheet.FormatXLSX))))
	switch format {
	case sheet.FormatCSV:
		err = sheet.WriteCSV(&buf, rows)
		contentType = "text/csv"
	case sheet.FormatXLSX:
		err = sheet.WriteXLSX(&buf, rows)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be xlsx or csv"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	filename := fmt.Sprintf("merged_matches_%s.%s", time.Now().Format("20060102_150405"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *ReconciliationHandler) Reset(c *gin.Context) {
	if err := h.service.Reset(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "database reset"})
}

// fail maps service errors onto HTTP responses.
func (h *ReconciliationHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrConflictingMatch):
		c.JSON(http.StatusConflict, gin.H{"error": repository.ErrConflictingMatch.Error()})
	case errors.Is(err, repository.ErrMatchNotPending):
		c.JSON(http.StatusNotFound, gin.H{"error": repository.ErrMatchNotPending.Error()})
	case errors.Is(err, repository.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrCodeCollision):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseID(c *gin.Context, param, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + what + " ID"})
		return uuid.Nil, false
	}
	return id, true
}

func operator(c *gin.Context) string {
	if op := strings.TrimSpace(c.GetHeader(operatorHeader)); op != "" {
		return op
	}
	return defaultOperator
}

func pageParams(c *gin.Context) repository.Page {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return repository.Page{Limit: limit, Offset: offset}
}

// searchParams reads amount, days, name, code and limit. An empty, zero or
// negative days value disables the date window; a missing one uses the default.
func searchParams(c *gin.Context) (matching.Criteria, int) {
	criteria := matching.DefaultCriteria()
	criteria.Amount = matching.ParseAmountMode(c.DefaultQuery("amount", "exact"))

	if raw, ok := c.GetQuery("days"); ok {
		days, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || days <= 0 {
			criteria.DayWindow = nil
		} else {
			criteria.DayWindow = &days
		}
	}
	criteria.Name, _ = strconv.ParseBool(c.DefaultQuery("name", "false"))
	criteria.Code, _ = strconv.ParseBool(c.DefaultQuery("code", "false"))

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		limit = 0
	}
	return criteria, limit
}

func dateRange(c *gin.Context) (*repository.DateRange, error) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		return nil, nil
	}
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return nil, errors.New("invalid from date, expected yyyy-mm-dd")
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return nil, errors.New("invalid to date, expected yyyy-mm-dd")
	}
	return &repository.DateRange{From: start, To: end}, nil
}
