package api_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/garnizeh/jobtrack/api"
	"github.com/garnizeh/jobtrack/internal/attachment"
)

func newUploadsHandler(t *testing.T) *api.UploadsHandler {
	t.Helper()
	s, err := attachment.NewDirStorage(t.TempDir())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	return api.NewUploadsHandler(attachment.NewIngestor(s, "/uploads", nil))
}

// multipartRequest builds an upload with a file part of the given content type.
func multipartRequest(t *testing.T, purpose, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if purpose != "" {
		if err := mw.WriteField("type", purpose); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		hdr.Set("Content-Type", contentType)
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadHandler(t *testing.T) {
	tests := []struct {
		name        string
		purpose     string
		filename    string
		contentType string
		size        int
		anonymous   bool
		wantStatus  int
		wantSuffix  string
	}{
		{name: "LogoPNG", purpose: "logo", filename: "acme.png", contentType: "image/png", size: 4 << 20, wantStatus: http.StatusCreated, wantSuffix: ".png"},
		{name: "CoverLetterPDF", purpose: "coverLetter", filename: "cv.pdf", contentType: "application/pdf", size: 1024, wantStatus: http.StatusCreated, wantSuffix: ".pdf"},
		{name: "PNGAsCoverLetter", purpose: "coverLetter", filename: "acme.png", contentType: "image/png", size: 1024, wantStatus: http.StatusBadRequest},
		{name: "PDFTooLarge", purpose: "coverLetter", filename: "cv.pdf", contentType: "application/pdf", size: 11 << 20, wantStatus: http.StatusBadRequest},
		{name: "UnknownPurpose", purpose: "avatar", filename: "a.png", contentType: "image/png", size: 10, wantStatus: http.StatusBadRequest},
		{name: "NoFile", purpose: "logo", wantStatus: http.StatusBadRequest},
		{name: "Anonymous", purpose: "logo", filename: "a.png", contentType: "image/png", size: 10, anonymous: true, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newUploadsHandler(t)
			req := multipartRequest(t, tt.purpose, tt.filename, tt.contentType, make([]byte, tt.size))
			if !tt.anonymous {
				req = asUser(req, "u1")
			}
			w := httptest.NewRecorder()
			h.Upload(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("want %d got %d body=%s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusCreated {
				return
			}
			var resp struct {
				Path string `json:"path"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !strings.HasPrefix(resp.Path, "/uploads/u1_"+tt.purpose+"_") || !strings.HasSuffix(resp.Path, tt.wantSuffix) {
				t.Fatalf("unexpected path %q", resp.Path)
			}
		})
	}
}

// uploadAndServe stores content through Upload and fetches it back by name.
func uploadAndServe(t *testing.T, h *api.UploadsHandler, purpose, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.Upload(w, asUser(multipartRequest(t, purpose, filename, contentType, content), "u1"))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	w = httptest.NewRecorder()
	h.Serve(w, mux.SetURLVars(httptest.NewRequest(http.MethodGet, resp.Path, nil), map[string]string{"name": path.Base(resp.Path)}))
	return w
}

func TestServeUpload(t *testing.T) {
	h := newUploadsHandler(t)

	tests := []struct {
		name            string
		purpose         string
		filename        string
		contentType     string
		body            string
		wantType        string
		wantDisposition string
	}{
		{name: "Logo", purpose: "logo", filename: "acme.gif", contentType: "image/gif", body: "GIF89a", wantType: "image/gif"},
		{name: "CoverLetter", purpose: "coverLetter", filename: "cv.pdf", contentType: "application/pdf", body: "%PDF-1.7", wantType: "application/pdf", wantDisposition: "attachment"},
		// the stored name keeps .html but it must never be served as markup
		{name: "HTMLNamedLogo", purpose: "logo", filename: "x.html", contentType: "image/png", body: "<script>alert(document.cookie)</script>", wantType: "application/octet-stream", wantDisposition: "attachment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := uploadAndServe(t, h, tt.purpose, tt.filename, tt.contentType, []byte(tt.body))
			if w.Code != http.StatusOK || w.Body.String() != tt.body {
				t.Fatalf("serve: %d %q", w.Code, w.Body.String())
			}
			if got := w.Header().Get("Content-Type"); got != tt.wantType {
				t.Fatalf("Content-Type = %q, want %q", got, tt.wantType)
			}
			if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
				t.Fatalf("X-Content-Type-Options = %q", got)
			}
			if got := w.Header().Get("Content-Disposition"); got != tt.wantDisposition {
				t.Fatalf("Content-Disposition = %q, want %q", got, tt.wantDisposition)
			}
		})
	}
}

func TestServeUpload_NotFound(t *testing.T) {
	h := newUploadsHandler(t)

	for _, bad := range []string{"missing.gif", "..", "../etc"} {
		w := httptest.NewRecorder()
		h.Serve(w, mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/uploads/x", nil), map[string]string{"name": bad}))
		if w.Code != http.StatusNotFound {
			t.Fatalf("serve %q: want 404 got %d", bad, w.Code)
		}
	}
}
