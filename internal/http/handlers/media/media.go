package media

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/mediaplatform/catalog-service/internal/cache"
	"github.com/mediaplatform/catalog-service/internal/events"
	"github.com/mediaplatform/catalog-service/internal/http/middleware"
	"github.com/mediaplatform/catalog-service/internal/storage"
	"github.com/mediaplatform/catalog-service/internal/types"
	"github.com/mediaplatform/catalog-service/internal/utils/jwt"
	"github.com/mediaplatform/catalog-service/internal/utils/response"
)

// CreateMedia handles media asset registration
// @Summary Register a media asset
// @Description Register a new media asset in the catalog
// @Tags media
// @Accept json
// @Produce json
// @Param media body types.MediaCreateRequest true "Media asset details"
// @Success 201 {object} types.MediaAsset "Media asset created"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /media [post]
func CreateMedia(storageSvc storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The caller must be authenticated but is not recorded on the
		// asset; the catalog has no ownership model.
		_, ok := middleware.GetAccountIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		var createReq types.MediaCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&createReq); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid request body")))
			return
		}

		validate := validator.New()
		if err := validate.Struct(createReq); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		media, err := storageSvc.CreateMedia(r.Context(), createReq.Title, createReq.Type, createReq.FileURL)
		if err != nil {
			slog.Error("Failed to create media asset", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to create media asset")))
			return
		}
		slog.Info("Media asset created", slog.Int64("media_id", media.ID), slog.String("title", media.Title))

		response.WriteJSON(w, http.StatusCreated, media)
	}
}

// StreamURL issues a short-lived stream URL for a media asset
// @Summary Get a stream URL
// @Description Issue a stream URL embedding a 10-minute stream token
// @Tags media
// @Produce json
// @Param id path int true "Media ID"
// @Success 200 {object} map[string]string "Stream URL issued"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Media not found"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /media/{id}/stream-url [get]
func StreamURL(storageSvc storage.Storage, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, ok := middleware.GetAccountIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		mediaID, err := mediaIDFromPath(r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		media, err := storageSvc.GetMediaByID(r.Context(), mediaID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("media not found")))
				return
			}
			slog.Error("Failed to look up media asset", slog.String("error", err.Error()), slog.Int64("media_id", mediaID))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to look up media asset")))
			return
		}

		streamToken, err := jwt.CreateStreamToken(media.ID, jwtSecret)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to generate stream token")))
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]string{
			"stream_url": fmt.Sprintf("/stream?token=%s", streamToken),
		})
	}
}

// Analytics returns the cached analytics snapshot for a media asset
// @Summary Get media analytics
// @Description Get the view analytics snapshot for a media asset (cached)
// @Tags media
// @Produce json
// @Param id path int true "Media ID"
// @Success 200 {object} types.Analytics "Analytics snapshot"
// @Failure 404 {object} response.Response "Media not found"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /media/{id}/analytics [get]
func Analytics(cacheSvc *cache.AnalyticsCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaID, err := mediaIDFromPath(r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		analytics, err := cacheSvc.GetAnalytics(r.Context(), mediaID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("media not found")))
				return
			}
			slog.Error("Failed to get analytics", slog.String("error", err.Error()), slog.Int64("media_id", mediaID))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to get analytics")))
			return
		}

		response.WriteJSON(w, http.StatusOK, analytics)
	}
}

// PostView increments the view counter of a media asset
// @Summary Record a view
// @Description Increment the asset's view counter (rate limited per client)
// @Tags media
// @Produce json
// @Param id path int true "Media ID"
// @Success 200 {object} map[string]int64 "Updated view count"
// @Failure 404 {object} response.Response "Media not found"
// @Failure 429 {object} response.Response "Rate limit exceeded"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /media/{id}/view [post]
func PostView(cacheSvc *cache.AnalyticsCache, publisher events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaID, err := mediaIDFromPath(r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Increment and invalidate the cached snapshot before the
		// response is written, so no later analytics read can return
		// a count older than this increment.
		views, err := cacheSvc.IncrementViews(r.Context(), mediaID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("media not found")))
				return
			}
			slog.Error("Failed to increment views", slog.String("error", err.Error()), slog.Int64("media_id", mediaID))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to increment views")))
			return
		}

		if publisher != nil {
			publisher.PublishMediaViewed(mediaID, views)
		}

		response.WriteJSON(w, http.StatusOK, map[string]int64{
			"media_id": mediaID,
			"views":    views,
		})
	}
}

func mediaIDFromPath(r *http.Request) (int64, error) {
	idParam := r.PathValue("id")
	if idParam == "" {
		return 0, errors.New("media id is required")
	}

	mediaID, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		return 0, errors.New("media id must be an integer")
	}

	return mediaID, nil
}
