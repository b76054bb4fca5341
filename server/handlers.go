package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
	"github.com/smallnest/teamgraph/errs"
	"github.com/smallnest/teamgraph/log"
	"github.com/smallnest/teamgraph/store"
	"github.com/smallnest/teamgraph/tool"
)

// handleQuestion streams the answer to ?question= as Server-Sent Events.
// Once the headers are out the status stays 200; failures are reported
// in-band by the gateway.
func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	values, ok := r.URL.Query()["question"]
	if !ok {
		writeError(w, r, errs.BadRequest("question is required", errs.CodeMissingParameter).WithParams("question"))
		return
	}
	question := values[0]

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, errs.Internal("streaming is not supported"))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	config := s.app.RunConfig("")

	h := w.Header()
	h.Set("Content-Type", "text/event-stream; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	h.Set(runIDHeader, config.RunID)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for line := range s.app.Gateway.Answer(ctx, question, config) {
		if ctx.Err() != nil {
			break
		}
		if _, err := io.WriteString(w, line); err != nil {
			log.Warn("run %s: client write failed: %v", config.RunID, err)
			break
		}
		flusher.Flush()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GraphResponse lists the Mermaid diagram of every graph.
type GraphResponse struct {
	RecursionLimit int            `json:"recursion_limit"`
	Graphs         []GraphDiagram `json:"graphs"`
}

// GraphDiagram is the Mermaid source of one graph.
type GraphDiagram struct {
	Name    string `json:"name"`
	Mermaid string `json:"mermaid"`
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	diagrams := s.app.Orchestrator.Diagrams()
	resp := GraphResponse{
		RecursionLimit: s.app.Orchestrator.RecursionLimit(),
		Graphs:         make([]GraphDiagram, 0, len(diagrams)),
	}
	for _, d := range diagrams {
		resp.Graphs = append(resp.Graphs, GraphDiagram{Name: d.Name, Mermaid: d.Mermaid})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDocument renders a workspace document as sanitized HTML, or
// returns it verbatim with ?raw=true.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	data, err := s.app.Workspace.ReadFile(name)
	switch {
	case errors.Is(err, tool.ErrOutsideWorkspace):
		writeError(w, r, errs.BadRequest(fmt.Sprintf("invalid document name %q", name), errs.CodeInvalidProperty).WithParams("name"))
		return
	case errors.Is(err, fs.ErrNotExist):
		writeError(w, r, errs.NotFound(fmt.Sprintf("document %s not found", name), errs.CodeNotFound).WithParams(name))
		return
	case err != nil:
		writeError(w, r, errs.Internal("failed to read document").WithCause(err))
		return
	}

	if r.URL.Query().Get("raw") == "true" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write(data)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(renderMarkdown(data))
}

func renderMarkdown(src []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse(src)

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return bluemonday.UGCPolicy().SanitizeBytes(markdown.Render(doc, renderer))
}

// CheckpointsResponse lists the checkpoints of one run, oldest first.
type CheckpointsResponse struct {
	RunID       string              `json:"run_id"`
	Checkpoints []*store.Checkpoint `json:"checkpoints"`
}

func (s *Server) handleCheckpoints(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	if s.app.Checkpoints == nil {
		writeError(w, r, errs.NotFound("checkpointing is disabled", errs.CodeNotFound))
		return
	}

	checkpoints, err := s.app.Checkpoints.List(r.Context(), runID)
	if err != nil {
		writeError(w, r, errs.Internal("failed to list checkpoints").WithCause(err))
		return
	}
	if len(checkpoints) == 0 {
		writeError(w, r, errs.NotFound(fmt.Sprintf("no checkpoints for run %s", runID), errs.CodeNotFound).WithParams(runID))
		return
	}
	writeJSON(w, http.StatusOK, CheckpointsResponse{RunID: runID, Checkpoints: checkpoints})
}
