package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"learnwise/internal/storage"
	"learnwise/internal/util"

	"github.com/gorilla/mux"
)

// multipartSlack covers boundaries and part headers on top of the file limit.
const multipartSlack = 1 << 20

// handleUpload streams the "file" part straight into the store. A "filename"
// field sent before it is taken as the UTF-8 display name.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.files.MaxBytes()+multipartSlack)
	mr, err := r.MultipartReader()
	if err != nil {
		s.writeErr(w, r, validationf("expected a multipart/form-data body with a file field"))
		return
	}

	var displayName string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			s.writeErr(w, r, validationf("no file uploaded"))
			return
		}
		if err != nil {
			s.writeErr(w, r, fmt.Errorf("read multipart body: %w", err))
			return
		}

		switch part.FormName() {
		case "filename":
			b, err := io.ReadAll(io.LimitReader(part, 1024))
			_ = part.Close()
			if err != nil {
				s.writeErr(w, r, fmt.Errorf("read filename field: %w", err))
				return
			}
			if name := strings.TrimSpace(string(b)); utf8.ValidString(name) {
				displayName = name
			}
		case "file":
			if part.FileName() == "" {
				_ = part.Close()
				continue
			}
			name := part.FileName()
			if displayName != "" {
				name = displayName
			}
			info, err := s.files.Store(r.Context(), part, name, part.Header.Get("Content-Type"))
			_ = part.Close()
			if err != nil {
				s.writeErr(w, r, err)
				return
			}
			s.logger.Info("file stored", "id", info.ID, "filename", info.OriginalFilename, "size", info.SizeBytes, "mime", info.MimeType)
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "file": info})
			return
		default:
			_ = part.Close()
		}
	}
}

// handleContent delivers a stored file according to its category.
func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	h, err := s.files.Retrieve(mux.Vars(r)["fileId"])
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	defer h.Close()

	switch h.Category {
	case storage.CategoryVideo:
		w.Header().Set("Content-Type", storage.ContentType(h.Info.ID))
		http.ServeContent(w, r, "", h.ModTime, h.File)
	case storage.CategoryPDF:
		setEmbedHeaders(w, h.Info.OriginalFilename)
		w.Header().Set("Content-Type", storage.ContentType(h.Info.ID))
		http.ServeContent(w, r, "", h.ModTime, h.File)
	case storage.CategoryEPUB:
		setEmbedHeaders(w, h.Info.OriginalFilename)
		w.Header().Set("Content-Type", storage.ContentType(h.Info.ID))
		w.Header().Set("Accept-Ranges", "none")
		w.Header().Set("Content-Length", fmt.Sprint(h.Info.SizeBytes))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := io.Copy(w, h); err != nil {
			s.logger.Warn("epub delivery interrupted", "id", h.Info.ID, "err", err)
		}
	default:
		b, err := io.ReadAll(h)
		if err != nil {
			s.writeErr(w, r, fmt.Errorf("read stored file: %w", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"content": util.DecodeUTF8(b)})
	}
}

// setEmbedHeaders allows documents to render inline inside a cross-origin frame.
func setEmbedHeaders(w http.ResponseWriter, filename string) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Range, Content-Type")
	h.Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Cache-Control", "public, max-age=3600")
	h.Set("Content-Disposition", util.ContentDisposition("inline", filename))
	h.Del("X-Frame-Options")
}

func handleContentPreflight(w http.ResponseWriter, _ *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Range, Content-Type")
	h.Set("Access-Control-Max-Age", "86400")
	w.WriteHeader(http.StatusNoContent)
}
