package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/blockpad/internal/translate"
)

// documentPath extracts the document path from the URL (everything after
// /api/documents/). Encoded slashes are accepted.
func documentPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List stored documents
//	@Tags			documents
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			type	query		string	false	"Only documents containing this block type"
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.docs.ListDocuments(r.Context(), limit, offset, q.Get("type"))
	if err != nil {
		writeError(w, "list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": items,
		"total":     total,
	})
}

// GetDocument handles GET /api/documents/*.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := documentPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.docs.GetDocument(r.Context(), path)
	if err != nil {
		writeError(w, "get document", err)
		return
	}
	w.Header().Set("ETag", `"`+doc.Checksum+`"`)
	writeJSON(w, http.StatusOK, doc)
}

// CreateDocument handles POST /api/documents.
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.docs.CreateDocument(r.Context(), req.Path, req.Snapshot)
	if err != nil {
		writeError(w, "create document", err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// UpdateDocument handles PUT /api/documents/*. An If-Match header holding
// the current checksum guards against lost updates.
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	path := documentPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req DocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	doc, err := h.docs.UpdateDocument(r.Context(), path, req.Snapshot, ifMatch)
	if err != nil {
		writeError(w, "update document", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// RenameDocument handles PATCH /api/documents/*.
//
//	@Summary		Rename a stored document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RenameRequest	true	"New document name"
//	@Router			/documents/{path} [patch]
func (h *Handler) RenameDocument(w http.ResponseWriter, r *http.Request) {
	path := documentPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req RenameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("new path is required"))
		return
	}
	doc, err := h.docs.RenameDocument(r.Context(), path, req.Path)
	if err != nil {
		writeError(w, "rename document", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /api/documents/*.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	path := documentPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.docs.DeleteDocument(r.Context(), path); err != nil {
		writeError(w, "delete document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.docs.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// BlockTypes handles GET /api/block-types.
func (h *Handler) BlockTypes(w http.ResponseWriter, _ *http.Request) {
	out := []BlockType{}
	for _, d := range h.tools.Descriptors() {
		out = append(out, BlockType{Descriptor: d, Block: d.IsBlock()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tools":          out,
		"inlineCommands": h.tools.InlineCommands(),
	})
}

// Languages handles GET /api/languages.
func (h *Handler) Languages(w http.ResponseWriter, r *http.Request) {
	langs := translate.Languages()
	if region := r.URL.Query().Get("region"); region != "" {
		langs = translate.LanguagesByRegion(region)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"languages": langs,
		"models":    translate.Models(),
	})
}
