package controllers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"inkwell/app/images"
	"inkwell/app/keyschema"
)

// maxUploadBytes caps a single image upload.
const maxUploadBytes = 32 << 20

// ImageController handles HTTP requests for images
type ImageController struct {
	service *images.Service
	log     *slog.Logger
}

// NewImageController creates a new ImageController
func NewImageController(service *images.Service, log *slog.Logger) *ImageController {
	if log == nil {
		log = slog.Default()
	}
	return &ImageController{service: service, log: log}
}

// Index lists every stored image ID.
func (ic *ImageController) Index(w http.ResponseWriter, r *http.Request) {
	ids, err := ic.service.List(r.Context())
	if err != nil {
		writeError(w, ic.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"ids": ids})
}

// Create uploads a new image from the raw request body. The optional ?id=
// query pins the image ID; otherwise one is generated.
func (ic *ImageController) Create(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read upload"})
		return
	}
	if len(raw) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty upload"})
		return
	}
	id, err := ic.service.Create(r.Context(), r.URL.Query().Get("id"), raw)
	if err != nil {
		writeError(w, ic.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// Show serves one image variant with its content type.
func (ic *ImageController) Show(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	variant := keyschema.ImageVariant(vars["variant"])
	switch variant {
	case keyschema.VariantOriginal, keyschema.VariantLarge, keyschema.VariantThumbnail:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown image variant"})
		return
	}
	data, contentType, err := ic.service.Get(r.Context(), vars["id"], variant)
	if err != nil {
		writeError(w, ic.log, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Delete removes every variant of an image.
func (ic *ImageController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := ic.service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, ic.log, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
