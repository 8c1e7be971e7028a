package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/blockpad/internal/dom"
	"github.com/starford/blockpad/internal/models"
)

// ListSessions handles GET /api/sessions.
func (h *Handler) ListSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": h.sessions.List()})
}

// OpenSession handles POST /api/sessions.
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Document == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("document is required"))
		return
	}
	s, err := h.sessions.Open(r.Context(), req.Document)
	if err != nil {
		writeError(w, "open session", err)
		return
	}
	h.writeSession(w, r, http.StatusCreated, s.ID)
}

// GetSession handles GET /api/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.writeSession(w, r, http.StatusOK, chi.URLParam(r, "id"))
}

func (h *Handler) writeSession(w http.ResponseWriter, r *http.Request, status int, id string) {
	s, err := h.sessions.Get(id)
	if err != nil {
		writeError(w, "get session", err)
		return
	}
	blocks, err := s.Editor.Blocks(r.Context())
	if err != nil {
		writeError(w, "list blocks", err)
		return
	}
	writeJSON(w, status, SessionDetail{Info: s.Info(), Blocks: blocks})
}

// CloseSession handles DELETE /api/sessions/{id}.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "close session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBlocks handles GET /api/sessions/{id}/blocks.
func (h *Handler) ListBlocks(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	blocks, err := s.Editor.Blocks(r.Context())
	if err != nil {
		writeError(w, "list blocks", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blocks": blocks})
}

// InsertBlock handles POST /api/sessions/{id}/blocks.
func (h *Handler) InsertBlock(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req InsertBlockRequest
	if !decodeBody(w, r, &req) {
		return
	}
	index := -1
	if req.Index != nil {
		index = *req.Index
	}
	id, err := s.Editor.Insert(r.Context(), req.Type, req.Data, index)
	if err != nil {
		writeError(w, "insert block", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// UpdateBlock handles PATCH /api/sessions/{id}/blocks/{blockID}.
func (h *Handler) UpdateBlock(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req UpdateBlockRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Data) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("data is required"))
		return
	}
	if err := s.Editor.Update(r.Context(), chi.URLParam(r, "blockID"), req.Data); err != nil {
		writeError(w, "update block", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteBlock handles DELETE /api/sessions/{id}/blocks/{blockID}.
func (h *Handler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Editor.Delete(r.Context(), chi.URLParam(r, "blockID")); err != nil {
		writeError(w, "delete block", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveBlock handles POST /api/sessions/{id}/blocks/{blockID}/move.
func (h *Handler) MoveBlock(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req MoveBlockRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.Editor.Move(r.Context(), chi.URLParam(r, "blockID"), req.Index); err != nil {
		writeError(w, "move block", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FocusBlock handles POST /api/sessions/{id}/blocks/{blockID}/focus.
func (h *Handler) FocusBlock(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Editor.Focus(r.Context(), chi.URLParam(r, "blockID")); err != nil {
		writeError(w, "focus block", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenderDocument handles PUT /api/sessions/{id}/document, replacing the
// live document with a snapshot.
func (h *Handler) RenderDocument(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var snap models.Snapshot
	if !decodeBody(w, r, &snap) {
		return
	}
	if err := s.Editor.Render(r.Context(), snap); err != nil {
		writeError(w, "render document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearDocument handles DELETE /api/sessions/{id}/document.
func (h *Handler) ClearDocument(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Editor.Clear(r.Context()); err != nil {
		writeError(w, "clear document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Save handles POST /api/sessions/{id}/save.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	snap, err := s.Save(r.Context())
	if err != nil {
		writeError(w, "save", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Click handles POST /api/sessions/{id}/click, pressing the save control.
func (h *Handler) Click(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Click(); err != nil {
		writeError(w, "click", err)
		return
	}
	writeJSON(w, http.StatusOK, OutputResponse{Output: s.Output()})
}

// Output handles GET /api/sessions/{id}/output.
func (h *Handler) Output(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, OutputResponse{Output: s.Output()})
}

// Page handles GET /api/sessions/{id}/page.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	resp := PageResponse{Holder: s.Editor.Holder(), Children: []dom.Node{}}
	if el := dom.Lookup(s.Page, resp.Holder); el != nil {
		resp.Children = el.Children()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Command handles POST /api/sessions/{id}/commands.
func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req CommandRequest
	if !decodeBody(w, r, &req) {
		return
	}
	reply, err := s.Command(r.Context(), req.Input)
	if err != nil {
		writeError(w, "command", err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
