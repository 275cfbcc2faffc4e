package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gounc/domain/core"
	"gounc/domain/run"
	"gounc/domain/uncertainty"
	"gounc/internal/errors"
	"gounc/internal/report"
)

const defaultListLimit = 50

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, errors.InvalidInput("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	runs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	if rec.Distribution == nil {
		s.writeError(w, errors.NotFound("distribution of run "+rec.ID().String()))
		return
	}
	output := r.URL.Query().Get("output")
	if output == "" {
		s.writeJSON(w, http.StatusOK, rec.Distribution)
		return
	}
	for _, d := range rec.Distribution {
		if d.Component.Name() == output {
			s.writeJSON(w, http.StatusOK, d)
			return
		}
	}
	s.writeError(w, errors.NotFound("output "+output))
}

func (s *Server) handleSensitivity(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	sens := rec.Sensitivity
	if sens == nil {
		s.writeError(w, errors.NotFound("sensitivity of run "+rec.ID().String()))
		return
	}

	output, param := r.URL.Query().Get("output"), r.URL.Query().Get("param")
	switch {
	case output == "":
		s.writeJSON(w, http.StatusOK, sens)
	case param == "":
		c, found := sens.Component(output)
		if !found {
			s.writeError(w, errors.NotFound("output "+output))
			return
		}
		s.writeJSON(w, http.StatusOK, c)
	default:
		idx, found := sens.Index(output, param)
		if !found {
			s.writeError(w, errors.NotFound("index "+output+"/"+param))
			return
		}
		s.writeJSON(w, http.StatusOK, idx)
	}
}

// frameInfo is the listing view of a stored frame
type frameInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    int      `json:"rows"`
}

func (s *Server) handleListFrames(w http.ResponseWriter, r *http.Request) {
	frames, ok := s.loadFrames(w, r)
	if !ok {
		return
	}
	out := make([]frameInfo, 0, len(frames))
	for _, f := range frames {
		out = append(out, frameInfo{Name: f.Name, Columns: f.Columns, Rows: f.Len()})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	frames, ok := s.loadFrames(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	for _, f := range frames {
		if f.Name == name {
			s.writeJSON(w, http.StatusOK, f)
			return
		}
	}
	s.writeError(w, errors.NotFound("frame "+name))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	opts := report.DefaultOptions()
	if v := r.URL.Query().Get("digits"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, errors.InvalidInput("digits must be a non-negative integer"))
			return
		}
		opts.SigDigits = n
	}

	if r.URL.Query().Get("format") == "md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(report.Markdown(rec, opts)))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(report.HTML(rec, opts))
}

// loadRun resolves the {id} parameter, writing the error response on failure
func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*run.Record, bool) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, errors.InvalidInput(err.Error()))
		return nil, false
	}
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return rec, true
}

func (s *Server) loadFrames(w http.ResponseWriter, r *http.Request) ([]uncertainty.Frame, bool) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, errors.InvalidInput(err.Error()))
		return nil, false
	}
	frames, err := s.store.Frames(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return frames, true
}
