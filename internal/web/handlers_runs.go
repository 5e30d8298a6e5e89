package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/statsetl/internal/etl"
	"github.com/JonMunkholm/statsetl/internal/logging"
	"github.com/JonMunkholm/statsetl/internal/sheet"
)

// eventInterval is how often the event stream polls run status.
var eventInterval = 250 * time.Millisecond

// multipartMemory is how much of a form is buffered in memory.
const multipartMemory = 8 << 20

var workbookExts = map[string]bool{".xlsx": true, ".xlsm": true}

// UploadResponse is returned when a run starts.
type UploadResponse struct {
	RunID     string `json:"run_id"`
	StatusURL string `json:"status_url"`
	ResultURL string `json:"result_url"`
}

// saveUpload streams the "file" form field to a temp file and returns its
// path and the client's file name. The caller removes the file.
func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request) (string, string, error) {
	maxSize := s.cfg.Run.MaxFileSize
	// allow for multipart framing around the file
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return "", "", ErrFileTooLarge
		}
		return "", "", fmt.Errorf("%w: %v", ErrNoFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", ErrNoFile
	}
	defer file.Close()

	if header.Size > maxSize {
		return "", "", ErrFileTooLarge
	}
	name := filepath.Base(header.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	if !workbookExts[ext] {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedFile, name)
	}

	tmp, err := os.CreateTemp(s.cfg.Run.UploadDir, "statsetl-*"+ext)
	if err != nil {
		return "", "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", "", fmt.Errorf("save upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", "", fmt.Errorf("save upload: %w", err)
	}
	return tmp.Name(), name, nil
}

func cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// handleUpload saves the workbook and starts an async run. The run removes
// the file when it ends.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	defer cleanupForm(r)

	path, name, err := s.saveUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	dryRun, _ := strconv.ParseBool(r.FormValue("dry_run"))
	runID, err := s.svc.StartRun(r.Context(), etl.RunRequest{
		Path:       path,
		FileName:   name,
		DryRun:     dryRun,
		RemoveFile: true,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("upload accepted", "run_id", runID, "file", name, "dry_run", dryRun)
	writeJSONStatus(w, http.StatusAccepted, UploadResponse{
		RunID:     runID,
		StatusURL: "/api/runs/" + runID,
		ResultURL: "/api/runs/" + runID + "/result",
	})
}

// handleValidate dry-runs the workbook synchronously and returns the Result.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	defer cleanupForm(r)

	path, _, err := s.saveUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer os.Remove(path)

	res := s.svc.Orchestrator().DryRun(r.Context(), path)
	writeJSON(w, res)
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Status(chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, st)
}

// handleRunResult blocks until the run finishes or the client goes away.
func (s *Server) handleRunResult(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Result(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
			return
		}
		respondError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if err := s.svc.Cancel(runID); err != nil {
		respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("run cancel requested", "run_id", runID)
	writeJSONStatus(w, http.StatusAccepted, map[string]string{"run_id": runID, "status": "cancelling"})
}

// handleRunEvents streams run status as Server-Sent Events: a "progress"
// event whenever the status changes and a final "complete" event carrying
// the Result.
func (s *Server) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	st, err := s.svc.Status(runID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	rc := http.NewResponseController(w)

	send := func(event string, v any) bool {
		data, err := json.Marshal(v)
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return false
		}
		return rc.Flush() == nil
	}

	ticker := time.NewTicker(eventInterval)
	defer ticker.Stop()

	var last etl.RunStatus
	for {
		if st != last {
			if !send("progress", st) {
				return
			}
			last = st
		}
		if st.Phase.Done() {
			if res, err := s.svc.Result(r.Context(), runID); err == nil {
				send("complete", res)
			}
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		if st, err = s.svc.Status(runID); err != nil {
			send("error", mapError(err))
			return
		}
	}
}

// handleTemplate serves an empty workbook with the expected headers.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := sheet.Write(&buf); err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="match-stats-template.xlsx"`)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.LimiterStatus())
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status   string            `json:"status"`
	Database string            `json:"database"`
	Runs     etl.LimiterStatus `json:"runs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Database: "ok", Runs: s.svc.LimiterStatus()}
	status := http.StatusOK

	if s.opts.Pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Pinger.Ping(ctx); err != nil {
			logging.FromContext(r.Context()).Warn("health check failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSONStatus(w, status, resp)
}
