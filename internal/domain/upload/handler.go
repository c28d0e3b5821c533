package upload

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"fileintake/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for file uploads.
// Any authenticated user can upload. Ownership is tracked by user_id.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Upload godoc
// @Summary Upload files
// @Description Store one or more files (field "file", repeatable) under today's date or the unix "timestamp" form value.
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File to upload"
// @Param timestamp formData int false "Unix timestamp selecting the date folder"
// @Success 201 {object} map[string]interface{}
// @Failure 400,401,413,500 {object} map[string]interface{}
// @Router /uploads [post]
func (h *Handler) Upload(c *gin.Context) {
	userID := mustUserID(c)
	if userID == 0 {
		return
	}

	files := formFiles(c)
	if len(files) == 0 {
		response.Error(c, http.StatusBadRequest, "NO_FILE", ErrNoFiles.Error())
		return
	}

	ts, ok := parseTimestamp(c.PostForm("timestamp"))
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_TIMESTAMP", "timestamp must be unix seconds")
		return
	}

	results, err := h.service.Upload(c.Request.Context(), userID, files, ts)
	if err != nil {
		switch {
		case errors.Is(err, ErrFileTooLarge):
			response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
		case errors.Is(err, ErrNoFiles):
			response.Error(c, http.StatusBadRequest, "NO_FILE", err.Error())
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "UPLOAD_FAILED", "upload failed")
		}
		return
	}

	for _, r := range results {
		if r.OK {
			response.Success(c, http.StatusCreated, gin.H{"files": results})
			return
		}
	}

	message := MsgFileNotUploaded
	if len(results) > 0 {
		message = results[0].Message
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, "UPLOAD_REJECTED", message, gin.H{"files": results})
}

// Validate godoc
// @Summary Check file types without storing
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File to check"
// @Success 200 {object} map[string]interface{}
// @Failure 400,401 {object} map[string]interface{}
// @Router /uploads/validate [post]
func (h *Handler) Validate(c *gin.Context) {
	files := formFiles(c)
	names := make([]string, len(files))
	for i, fh := range files {
		names[i] = fh.Filename
	}

	out := h.service.Validate(names)
	if !out.OK {
		response.Error(c, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", out.Message)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": out.Message, "count": len(names)})
}

// GetByID godoc
// @Summary Get upload metadata by ID
// @Tags Uploads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Upload ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403,404 {object} map[string]interface{}
// @Router /uploads/{id} [get]
func (h *Handler) GetByID(c *gin.Context) {
	userID := mustUserID(c)
	if userID == 0 {
		return
	}

	u, err := h.service.GetOwned(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotOwner):
			response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
		case errors.Is(err, ErrUploadNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "upload not found")
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "GET_FAILED", "failed to load upload")
		}
		return
	}
	response.Success(c, http.StatusOK, u)
}

// Delete godoc
// @Summary Delete an upload (file + record)
// @Tags Uploads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Upload ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403,404,500 {object} map[string]interface{}
// @Router /uploads/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	userID := mustUserID(c)
	if userID == 0 {
		return
	}

	out, err := h.service.Delete(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrUploadNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "upload not found")
		case errors.Is(err, ErrNotOwner):
			response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "DELETE_FAILED", "delete failed")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": out.Message, "file_removed": out.OK})
}

// RemoveStored godoc
// @Summary Remove a stored file by name and date (admin)
// @Tags Uploads
// @Produce json
// @Security BearerAuth
// @Param name query string true "Stored file name"
// @Param timestamp query int true "Unix timestamp of the date folder"
// @Success 200 {object} map[string]interface{}
// @Failure 400,404 {object} map[string]interface{}
// @Router /admin/uploads/files [delete]
func (h *Handler) RemoveStored(c *gin.Context) {
	ts, ok := parseTimestamp(c.Query("timestamp"))
	if !ok || ts.IsZero() {
		response.Error(c, http.StatusBadRequest, "INVALID_TIMESTAMP", "timestamp must be unix seconds")
		return
	}

	out, err := h.service.RemoveStored(c.Request.Context(), c.Query("name"), ts)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "DELETE_FAILED", "delete failed")
		return
	}
	if !out.OK {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", out.Message)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": out.Message})
}

// ListMy godoc
// @Summary List my uploads
// @Tags Uploads
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /uploads [get]
func (h *Handler) ListMy(c *gin.Context) {
	userID := mustUserID(c)
	if userID == 0 {
		return
	}

	uploads, err := h.service.ListByUser(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "LIST_FAILED", "failed to list uploads")
		return
	}
	response.Success(c, http.StatusOK, uploads)
}

func formFiles(c *gin.Context) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	files := append([]*multipart.FileHeader{}, form.File["file"]...)
	return append(files, form.File["file[]"]...)
}

func parseTimestamp(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, true
	}
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil || sec <= 0 {
		return time.Time{}, false
	}
	return time.Unix(sec, 0).UTC(), true
}

func mustUserID(c *gin.Context) int64 {
	id, exists := c.Get("user_id")
	if !exists {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return 0
	}
	switch v := id.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user id")
	return 0
}
