package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"storefront/internal/model"
	"storefront/internal/storage"

	"github.com/rs/zerolog"
)

// UploadHandler accepts product image uploads.
type UploadHandler struct {
	store       storage.Store
	maxFileSize int64
	maxFiles    int
	logger      zerolog.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(store storage.Store, maxFileSize int64, maxFiles int, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		store:       store,
		maxFileSize: maxFileSize,
		maxFiles:    maxFiles,
		logger:      logger.With().Str("handler", "upload").Logger(),
	}
}

// SingleUploadResponse is returned by POST /api/upload.
type SingleUploadResponse struct {
	Success bool   `json:"success"`
	Image   string `json:"image"`
}

// MultipleUploadResponse is returned by POST /api/upload/multiple.
type MultipleUploadResponse struct {
	Success bool     `json:"success"`
	Images  []string `json:"images"`
}

// Single handles POST /api/upload with one file in the image field.
func (h *UploadHandler) Single(w http.ResponseWriter, r *http.Request) {
	defer h.cleanup(r)
	files, err := h.parse(w, r, "image", 1)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	url, err := h.save(r, "image", files[0])
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, SingleUploadResponse{Success: true, Image: url})
}

// Multiple handles POST /api/upload/multiple with files in the images field.
func (h *UploadHandler) Multiple(w http.ResponseWriter, r *http.Request) {
	defer h.cleanup(r)
	files, err := h.parse(w, r, "images", h.maxFiles)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, err := h.save(r, "images", fh)
		if err != nil {
			writeError(w, err, h.logger)
			return
		}
		urls = append(urls, url)
	}
	writeJSON(w, http.StatusOK, MultipleUploadResponse{Success: true, Images: urls})
}

func (h *UploadHandler) parse(w http.ResponseWriter, r *http.Request, field string, limit int) ([]*multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize*int64(limit)+maxBodyBytes)
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, model.ErrUnsupportedFile
		}
		return nil, model.NewValidationError("Invalid multipart form")
	}

	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil, model.NewValidationError("No file uploaded")
	}
	if len(files) > limit {
		return nil, model.NewValidationError(fmt.Sprintf("At most %d files may be uploaded", limit))
	}

	for _, fh := range files {
		if fh.Size > h.maxFileSize {
			return nil, model.ErrUnsupportedFile
		}
		if _, ok := storage.ImageExtension(fh.Filename, fh.Header.Get("Content-Type")); !ok {
			return nil, model.ErrUnsupportedFile
		}
	}
	return files, nil
}

// cleanup removes the temporary files of parts that did not fit in memory.
func (h *UploadHandler) cleanup(r *http.Request) {
	if r.MultipartForm == nil {
		return
	}
	if err := r.MultipartForm.RemoveAll(); err != nil {
		h.logger.Warn().Err(err).Msg("failed to remove multipart temp files")
	}
}

func (h *UploadHandler) save(r *http.Request, field string, fh *multipart.FileHeader) (string, error) {
	contentType := fh.Header.Get("Content-Type")
	ext, _ := storage.ImageExtension(fh.Filename, contentType)
	name, err := storage.NewFileName(field, ext)
	if err != nil {
		return "", err
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	url, err := h.store.Save(r.Context(), name, contentType, f)
	if err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}

	h.logger.Info().Str("file", name).Int64("size", fh.Size).Msg("image uploaded")
	return url, nil
}
