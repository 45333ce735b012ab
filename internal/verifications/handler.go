package verifications

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docverify-backend/internal/shared/server/middleware"
	"docverify-backend/internal/shared/server/respond"
)

const maxUploadBytes = 15 << 20

// Handler wires HTTP handlers to the verifications service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches verification routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/verifications", h.startVerification)
	rg.GET("/verifications", h.listVerifications)
	rg.GET("/verifications/:id", h.getVerification)
}

func (h *Handler) startVerification(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	if username == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "username is required", nil)
		return
	}

	idUpload, ok := h.formUpload(c, "id_document")
	if !ok {
		return
	}
	defer idUpload.close()
	bankUpload, ok := h.formUpload(c, "bank_statement")
	if !ok {
		return
	}
	defer bankUpload.close()

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	verification, err := h.Svc.Create(ctx, CreateInput{
		Username:      username,
		IDDocument:    idUpload.Upload,
		BankStatement: bankUpload.Upload,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start verification", nil)
		}
		return
	}

	respond.JSON(c, http.StatusAccepted, gin.H{
		"verificationId": verification.ID,
		"status":         verification.Status,
	})
}

func (h *Handler) getVerification(c *gin.Context) {
	verificationID := c.Param("id")
	if verificationID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "verification id is required", nil)
		return
	}

	verification, err := h.Svc.Get(c.Request.Context(), verificationID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "verification not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch verification", nil)
		}
		return
	}

	resp := gin.H{
		"id":        verification.ID,
		"username":  verification.Username,
		"status":    verification.Status,
		"createdAt": verification.CreatedAt,
	}
	if verification.Status == StatusCompleted && verification.Result != nil {
		resp["result"] = verification.Result
		resp["verdicts"] = verification.Result.Verdicts()
		resp["idFields"] = verification.IDFields
		resp["bankFields"] = verification.BankFields
	}
	if verification.Status == StatusFailed {
		resp["errorCode"] = verification.ErrorCode
		resp["errorMessage"] = verification.ErrorMessage
	}
	if verification.CompletedAt != nil {
		resp["completedAt"] = verification.CompletedAt
	}

	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) listVerifications(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "username is required", nil)
		return
	}

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	runs, err := h.Svc.List(c.Request.Context(), username, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list verifications", nil)
		return
	}

	resp := make([]gin.H, 0, len(runs))
	for _, run := range runs {
		item := gin.H{
			"verificationId": run.ID,
			"status":         run.Status,
			"createdAt":      run.CreatedAt,
		}
		if run.Status == StatusCompleted && run.Result != nil {
			item["verified"] = run.Result.Verified
			item["matchedFields"] = run.Result.Matched
		}
		if run.Status == StatusFailed {
			item["errorCode"] = run.ErrorCode
		}
		resp = append(resp, item)
	}

	respond.JSON(c, http.StatusOK, resp)
}

type formUpload struct {
	Upload
	file multipart.File
}

func (u *formUpload) close() {
	if u != nil && u.file != nil {
		_ = u.file.Close()
	}
}

// formUpload pulls one file out of the multipart form, rejecting oversized
// uploads before any state is created. It writes the error response itself.
func (h *Handler) formUpload(c *gin.Context, field string) (*formUpload, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", field+" file is required", nil)
		return nil, false
	}
	if header.Size > maxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", field+" exceeds the upload size limit", nil)
		return nil, false
	}
	file, err := header.Open()
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read "+field, nil)
		return nil, false
	}
	return &formUpload{
		Upload: Upload{
			FileName: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Body:     file,
		},
		file: file,
	}, true
}
