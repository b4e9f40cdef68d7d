package server

import (
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/elieapp/elie/pkg/domain"
	"github.com/elieapp/elie/pkg/graph"
)

// maxImportBytes bounds uploaded session documents.
const maxImportBytes = 2 << 20

type createSessionRequest struct {
	Topic string `json:"topic" validate:"required,max=200"`
}

type expandNodeRequest struct {
	Assertion domain.NodeStatus `json:"assertion" validate:"required,oneof=known unknown"`
}

type setModeRequest struct {
	Mode domain.ExplanationMode `json:"mode" validate:"required,oneof=short long"`
}

// --- Sessions ---

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeRequest(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err)
		return
	}

	sess, err := s.state.Create(r.Context(), req.Topic)
	if err != nil {
		s.errorResponse(w, statusForError(err), err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, newSessionView(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorResponse(w, statusForError(err), err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.errorResponse(w, statusForError(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Map interaction ---

func (s *Server) handleExpandNode(w http.ResponseWriter, r *http.Request) {
	var req expandNodeRequest
	if err := decodeRequest(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err)
		return
	}

	// Node IDs contain spaces, so the path segment may still be
	// percent-encoded depending on how the request was routed.
	nodeID := chi.URLParam(r, "nodeID")
	if decoded, err := url.PathUnescape(nodeID); err == nil {
		nodeID = decoded
	}

	sess, err := s.state.Expand(r.Context(), chi.URLParam(r, "id"), nodeID, req.Assertion)
	if err != nil {
		s.errorResponse(w, statusForError(err), err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req setModeRequest
	if err := decodeRequest(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err)
		return
	}

	sess, err := s.state.SetMode(r.Context(), chi.URLParam(r, "id"), req.Mode)
	if err != nil {
		s.errorResponse(w, statusForError(err), err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	sess, err := s.state.Reload(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorResponse(w, statusForError(err), err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newSessionView(sess))
}

// --- Rendering ---

func (s *Server) handleFigure(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorResponse(w, statusForError(err), err)
		return
	}

	fig := s.graph.Figure(sess, graph.FigureParams{
		FlashID:   r.URL.Query().Get("flash"),
		Autorange: r.URL.Query().Get("autoscale") == "true",
	})
	s.jsonResponse(w, http.StatusOK, fig)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	names, err := s.state.Suggestions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorResponse(w, statusForError(err), err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string][]string{"concepts": names})
}

// --- Portability ---

func (s *Server) handleExportSession(w http.ResponseWriter, r *http.Request) {
	data, err := s.state.Export(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorResponse(w, statusForError(err), err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="elie-session.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleImportSession(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err)
		return
	}

	sess, err := s.state.Import(r.Context(), data)
	if err != nil {
		s.errorResponse(w, statusForError(err), err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, newSessionView(sess))
}
