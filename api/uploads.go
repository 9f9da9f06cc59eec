package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/garnizeh/jobtrack/internal/apperror"
	"github.com/garnizeh/jobtrack/internal/attachment"
)

// multipart overhead allowed on top of the largest attachment
const uploadSlack = 1 << 20

type UploadsHandler struct {
	ing     *attachment.Ingestor
	maxBody int64
}

func NewUploadsHandler(ing *attachment.Ingestor) *UploadsHandler {
	var largest int64
	for _, p := range []attachment.Purpose{attachment.PurposeCoverLetter, attachment.PurposeLogo} {
		if rule, ok := attachment.RuleFor(p); ok && rule.MaxBytes > largest {
			largest = rule.MaxBytes
		}
	}
	return &UploadsHandler{ing: ing, maxBody: largest + uploadSlack}
}

type uploadResponse struct {
	Path string `json:"path"`
}

// Upload accepts a multipart form with a "file" part and a "type" field
// naming the purpose.
func (h *UploadsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := r.ParseMultipartForm(h.maxBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, apperror.NewValidation("file is too large"))
			return
		}
		writeError(w, r, apperror.New(apperror.Validation, "invalid multipart form", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, apperror.NewValidation("no file supplied"))
		return
	}
	defer file.Close()

	ref, err := h.ing.Ingest(r.Context(), attachment.Upload{
		OwnerID:  id.UserID,
		Purpose:  attachment.Purpose(r.FormValue("type")),
		MIMEType: header.Header.Get("Content-Type"),
		Size:     header.Size,
		Filename: header.Filename,
		Content:  file,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, uploadResponse{Path: ref}, http.StatusCreated)
}

// Serve streams a stored attachment back by name.
func (h *UploadsHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	f, err := h.ing.Open(name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, r, apperror.NewStorage("failed to stat file", err))
		return
	}

	// A preset Content-Type stops ServeContent from guessing one from the
	// client-chosen extension.
	ctype, inline := attachment.ContentTypeFor(name)
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if !inline {
		w.Header().Set("Content-Disposition", "attachment")
	}
	http.ServeContent(w, r, name, info.ModTime(), f)
}
