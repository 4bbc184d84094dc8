package image

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/imagevault/service/internal/blob"
	"github.com/imagevault/service/internal/middleware"
	"github.com/imagevault/service/internal/response"
	"github.com/imagevault/service/internal/tenant"
)

// Handler holds HTTP handlers for image endpoints.
type Handler struct {
	svc   *Service
	store blob.Store
}

// multipartOverheadBytes is headroom on top of the upload limit for the
// multipart boundaries, part headers and text fields.
const multipartOverheadBytes = 1 << 20

// NewHandler creates a new image Handler. The blob store is used directly
// by the blob-serving endpoint; everything else goes through the service.
func NewHandler(svc *Service, store blob.Store) *Handler {
	return &Handler{svc: svc, store: store}
}

// Upload godoc
//
//	@Summary		Upload an image
//	@Description	Accepts a multipart image upload, normalizes it, derives a thumbnail and stores both in the tenant's container.
//	@Tags			images
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file		formData	file	true	"Image file (jpeg, png, gif, bmp or webp)"
//	@Param			description	formData	string	false	"Free-text description"
//	@Param			tags		formData	string	false	"Free-text tags"
//	@Success		201	{object}	response.Envelope{data=Image}
//	@Failure		400	{object}	response.Envelope
//	@Failure		401	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		413	{object}	response.Envelope
//	@Failure		415	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/images/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, tenantID, ok := middleware.Identity(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	// Cap the body before parsing so an oversized upload is cut off at
	// the limit instead of being buffered whole and rejected later.
	r.Body = http.MaxBytesReader(w, r.Body, h.svc.limits.MaxUploadBytes+multipartOverheadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.PayloadTooLarge(w, "file size exceeds limit")
			return
		}
		response.BadRequest(w, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.BadRequest(w, "could not read file")
		return
	}
	if len(data) == 0 {
		response.BadRequest(w, "no file provided")
		return
	}

	req := UploadRequest{
		Data:        data,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		UserID:      userID,
		TenantID:    tenantID,
	}
	if v := r.FormValue("description"); v != "" {
		req.Description = &v
	}
	if v := r.FormValue("tags"); v != "" {
		req.Tags = &v
	}

	img, err := h.svc.Upload(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedFormat):
			response.UnsupportedMediaType(w, "unsupported image format")
		case errors.Is(err, ErrTooLarge):
			response.PayloadTooLarge(w, "file size exceeds limit")
		case errors.Is(err, ErrDecode):
			response.BadRequest(w, "image data could not be decoded")
		case errors.Is(err, tenant.ErrNotFound):
			response.NotFound(w, "tenant not found")
		default:
			log.Error().Err(err).Msg("image upload failed")
			response.InternalError(w)
		}
		return
	}

	response.Created(w, img)
}

// List godoc
//
//	@Summary		List images
//	@Description	Returns the caller's images, newest first. Soft-deleted images are excluded.
//	@Tags			images
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=[]Summary}
//	@Failure		401	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/images [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, tenantID, ok := middleware.Identity(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	summaries, err := h.svc.List(r.Context(), userID, tenantID)
	if err != nil {
		log.Error().Err(err).Msg("image listing failed")
		response.InternalError(w)
		return
	}

	response.OK(w, summaries)
}

// Get godoc
//
//	@Summary		Get one image
//	@Description	Returns full metadata for one of the caller's images.
//	@Tags			images
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Image ID"
//	@Success		200	{object}	response.Envelope{data=Image}
//	@Failure		401	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/images/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, tenantID, ok := middleware.Identity(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	img, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), userID, tenantID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "image not found")
			return
		}
		log.Error().Err(err).Msg("image lookup failed")
		response.InternalError(w)
		return
	}

	response.OK(w, img)
}

// Delete godoc
//
//	@Summary		Delete an image
//	@Description	Soft-deletes one of the caller's images. The stored blobs are retained.
//	@Tags			images
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Image ID"
//	@Success		204
//	@Failure		401	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/images/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, tenantID, ok := middleware.Identity(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	deleted, err := h.svc.SoftDelete(r.Context(), chi.URLParam(r, "id"), userID, tenantID)
	if err != nil {
		log.Error().Err(err).Msg("image delete failed")
		response.InternalError(w)
		return
	}
	if !deleted {
		response.NotFound(w, "image not found")
		return
	}

	response.NoContent(w)
}

// ServeBlob godoc
//
//	@Summary		Serve a stored blob
//	@Description	Streams a stored original or thumbnail back with its content type. Backs the locators issued by the in-process blob backends.
//	@Tags			images
//	@Produce		octet-stream
//	@Param			container	path	string	true	"Container name"
//	@Param			key			path	string	true	"Storage key"
//	@Success		200	{file}		binary
//	@Failure		404	{object}	response.Envelope
//	@Router			/images/blob/{container}/{key} [get]
func (h *Handler) ServeBlob(w http.ResponseWriter, r *http.Request) {
	container := chi.URLParam(r, "container")
	key := chi.URLParam(r, "key")

	data, contentType, err := h.store.Get(r.Context(), container, key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			response.NotFound(w, "blob not found")
			return
		}
		log.Error().Err(err).Str("container", container).Str("key", key).Msg("blob read failed")
		response.InternalError(w)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	_, _ = w.Write(data)
}
