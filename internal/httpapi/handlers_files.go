package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"starterkit.dev/internal/auth"
)

func (a *API) handleFiles(w http.ResponseWriter, r *http.Request) {
	user, r, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		list, err := a.files.ListByUser(r.Context(), user.ID, limit)
		if err != nil {
			handleFilesError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"files": list})
	case http.MethodPost:
		a.handleFileUpload(w, r, user)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleFileUpload(w http.ResponseWriter, r *http.Request, user *auth.User) {
	if !a.requirePermission(w, r, user, "files", "create") {
		return
	}

	// Bound the whole multipart body a little above the per-file cap so the
	// service can report the precise too-large error.
	r.Body = http.MaxBytesReader(w, r.Body, a.files.MaxSize()+(1<<20))
	if err := r.ParseMultipartForm(a.files.MaxSize()); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "file field is required")
		return
	}
	defer part.Close()

	content, err := io.ReadAll(part)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "could not read file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(content)
	}

	file, err := a.files.Upload(r.Context(), user.ID, header.Filename, mimeType, content)
	if err != nil {
		handleFilesError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"file": file})
}
