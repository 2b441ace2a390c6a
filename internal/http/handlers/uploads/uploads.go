package uploads

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/mediaplatform/catalog-service/internal/http/middleware"
	"github.com/mediaplatform/catalog-service/internal/services/objectstore"
	"github.com/mediaplatform/catalog-service/internal/utils/response"
)

type UploadHandlers struct {
	objectStore *objectstore.Service
}

type UploadURLRequest struct {
	ContentType string `json:"content_type" validate:"required"`
}

type UploadURLResponse struct {
	ObjectKey   string `json:"object_key"`
	UploadURL   string `json:"upload_url"`
	ExpiresAt   int64  `json:"expires_at"`
	MaxFileSize int64  `json:"max_file_size"`
	ContentType string `json:"content_type"`
}

// NewUploadHandlers creates a new upload handlers instance
func NewUploadHandlers(objectStore *objectstore.Service) *UploadHandlers {
	return &UploadHandlers{
		objectStore: objectStore,
	}
}

// GenerateUploadURL generates a presigned URL for an asset file upload
// @Summary Generate presigned upload URL
// @Description Generate a presigned URL for uploading a media asset file
// @Tags uploads
// @Accept json
// @Produce json
// @Param request body UploadURLRequest true "Upload URL request"
// @Success 200 {object} UploadURLResponse "Upload URL generated successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /media/upload-url [post]
func (h *UploadHandlers) GenerateUploadURL() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, ok := middleware.GetAccountIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		var req UploadURLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid request body")))
			return
		}
		if req.ContentType == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("content_type is required")))
			return
		}

		uploadInfo, err := h.objectStore.GeneratePresignedUploadURL(r.Context(), req.ContentType)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		resp := UploadURLResponse{
			ObjectKey:   uploadInfo.ObjectKey,
			UploadURL:   uploadInfo.UploadURL,
			ExpiresAt:   uploadInfo.ExpiresAt,
			MaxFileSize: uploadInfo.MaxFileSize,
			ContentType: uploadInfo.ContentType,
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Upload URL generated successfully", resp))
	}
}

// GenerateDownloadURL generates a presigned URL for an asset file download
// @Summary Generate presigned download URL
// @Description Generate a presigned URL for downloading a media asset file
// @Tags uploads
// @Produce json
// @Param object_key query string true "Object key"
// @Param expires query int false "Expiration time in seconds (default: 3600)"
// @Success 200 {object} map[string]interface{} "Download URL generated successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Object not found"
// @Security BearerAuth
// @Router /media/download-url [get]
func (h *UploadHandlers) GenerateDownloadURL() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, ok := middleware.GetAccountIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		objectKey := r.URL.Query().Get("object_key")
		if objectKey == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("object_key is required")))
			return
		}

		expiresParam := r.URL.Query().Get("expires")
		expires := 3600 // default 1 hour
		if expiresParam != "" {
			if parsedExpires, err := strconv.Atoi(expiresParam); err == nil && parsedExpires > 0 {
				expires = parsedExpires
			}
		}

		downloadURL, err := h.objectStore.GeneratePresignedDownloadURL(r.Context(), objectKey, time.Duration(expires)*time.Second)
		if err != nil {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("failed to generate download URL")))
			return
		}

		resp := map[string]interface{}{
			"object_key":   objectKey,
			"download_url": downloadURL.String(),
			"expires_at":   time.Now().Add(time.Duration(expires) * time.Second).Unix(),
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Download URL generated successfully", resp))
	}
}
