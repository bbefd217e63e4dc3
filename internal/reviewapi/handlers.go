package reviewapi

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"sort"
	"strings"

	"docshelf/internal/config"
	"docshelf/internal/logging"
	"docshelf/internal/queue"
	"docshelf/internal/services"
)

const maxRequestBytes = 64 << 10

// reviewStatuses are the statuses a review surface may set.
var reviewStatuses = map[queue.Status]struct{}{
	queue.StatusApproved:        {},
	queue.StatusRejected:        {},
	queue.StatusPendingApproval: {},
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type updateStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type updateStatusResponse struct {
	Success bool        `json:"success"`
	Entry   queue.Entry `json:"entry"`
}

type directoryFile struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`

	modUnix int64
}

type listDirectoryResponse struct {
	Success    bool            `json:"success"`
	Error      string          `json:"error,omitempty"`
	Directory  string          `json:"directory"`
	Files      []directoryFile `json:"files"`
	TotalCount int             `json:"total_count"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrQueueCorrupt) {
			status = http.StatusUnprocessableEntity
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	body := io.LimitReader(r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" || strings.TrimSpace(req.Status) == "" {
		s.writeError(w, http.StatusBadRequest, "missing id or status")
		return
	}
	status, ok := queue.ParseStatus(req.Status)
	if _, allowed := reviewStatuses[status]; !ok || !allowed {
		s.writeError(w, http.StatusBadRequest, "status must be approved, rejected, or pending_approval")
		return
	}

	s.updates.Lock()
	defer s.updates.Unlock()
	if s.lock != nil {
		if err := s.lock.TryAcquire(); err != nil {
			code := http.StatusInternalServerError
			if errors.Is(err, services.ErrExecutorBusy) {
				code = http.StatusConflict
			}
			s.writeError(w, code, err.Error())
			return
		}
		defer func() { _ = s.lock.Release() }()
	}

	entry, err := s.store.UpdateStatus(r.Context(), req.ID, status)
	switch {
	case err == nil:
	case errors.Is(err, queue.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, queue.ErrInvalidTransition):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrQueueCorrupt):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info("review status updated",
		logging.String(logging.FieldEventType, "review_status_updated"),
		logging.String(logging.FieldEntryID, entry.ID),
		logging.String("status", string(status)),
	)
	s.writeJSON(w, http.StatusOK, updateStatusResponse{Success: true, Entry: entry})
}

func (s *Server) handleListDirectory(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("path"))
	if raw == "" {
		s.writeError(w, http.StatusBadRequest, "missing path parameter")
		return
	}
	dir, err := config.ExpandPath(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		s.writeJSON(w, http.StatusOK, listDirectoryResponse{Success: false, Error: "directory does not exist", Directory: dir, Files: []directoryFile{}})
		return
	}
	if err != nil {
		s.writeFSError(w, err)
		return
	}
	if !info.IsDir() {
		s.writeError(w, http.StatusBadRequest, "path is not a directory")
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.writeFSError(w, err)
		return
	}
	files := make([]directoryFile, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, directoryFile{
			Name:     entry.Name(),
			Size:     fi.Size(),
			Modified: fi.ModTime().Format("2006-01-02 15:04:05"),
			modUnix:  fi.ModTime().UnixNano(),
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].modUnix != files[j].modUnix {
			return files[i].modUnix > files[j].modUnix
		}
		return files[i].Name < files[j].Name
	})
	s.writeJSON(w, http.StatusOK, listDirectoryResponse{Success: true, Directory: dir, Files: files, TotalCount: len(files)})
}

func (s *Server) handleFilePreview(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("path"))
	if raw == "" {
		s.writeError(w, http.StatusBadRequest, "missing path parameter")
		return
	}
	path, err := config.ExpandPath(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	file, err := os.Open(path)
	if err != nil {
		s.writeFSError(w, err)
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		s.writeFSError(w, err)
		return
	}
	if !info.Mode().IsRegular() {
		s.writeError(w, http.StatusBadRequest, "path is not a file")
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}

func (s *Server) writeFSError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.writeError(w, http.StatusNotFound, "file not found")
	case errors.Is(err, fs.ErrPermission):
		s.writeError(w, http.StatusForbidden, "permission denied")
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}
