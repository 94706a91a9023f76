package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"dihi/internal/api"
	"dihi/internal/logging"
	"dihi/internal/registry"
	"dihi/internal/services"
)

type apiServer struct {
	bind    string
	logger  *slog.Logger
	manager jobService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(bind string, manager jobService, logger *slog.Logger) (*apiServer, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, errors.New("api bind address required")
	}

	srv := &apiServer{
		bind:    bind,
		logger:  logging.WithComponent(logger, "api-server"),
		manager: manager,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", srv.handleHealth)
	mux.HandleFunc("/api/items/", srv.handleItems)
	mux.HandleFunc("/api/collections/", srv.handleCollections)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	health := s.manager.Health()
	s.writeJSON(w, http.StatusOK, api.HealthResponse{
		ArchiveExists:     health.ArchiveExists,
		ItemsActive:       health.ItemsActive,
		ItemLimit:         health.ItemLimit,
		CollectionsActive: health.CollectionsActive,
		CollectionLimit:   health.CollectionLimit,
	})
}

// handleItems routes /api/items/{id}[/fetch|/status].
func (s *apiServer) handleItems(w http.ResponseWriter, r *http.Request) {
	id, action, ok := splitResourcePath(r.URL.Path, "/api/items/")
	if !ok {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		archived, err := s.manager.ItemArchived(id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.LookupResponse{Result: archived})
	case "fetch":
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		admission, err := s.manager.TriggerItem(id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.FetchResponse{
			Started:       admission.Started,
			AlreadyActive: admission.AlreadyActive,
			RunID:         admission.RunID,
		})
	case "status":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		report, err := s.manager.ItemStatus(id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.ItemStatusResponse{
			Downloading: report.Downloading,
			Result:      string(report.Result),
			InArchive:   report.InArchive,
		})
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

// handleCollections routes /api/collections/{id}/fetch|/status.
func (s *apiServer) handleCollections(w http.ResponseWriter, r *http.Request) {
	id, action, ok := splitResourcePath(r.URL.Path, "/api/collections/")
	if !ok {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch action {
	case "fetch":
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		admission, err := s.manager.TriggerCollection(id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.FetchResponse{
			Started:       admission.Started,
			AlreadyActive: admission.AlreadyActive,
			RunID:         admission.RunID,
		})
	case "status":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		status, err := s.manager.CollectionStatus(id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, collectionResponse(status))
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

func collectionResponse(status registry.CollectionStatus) api.CollectionStatusResponse {
	return api.CollectionStatusResponse{
		Known:          status.Known,
		Downloading:    status.Downloading,
		Phase:          string(status.Phase),
		Total:          status.Total,
		CompletedCount: len(status.Completed),
		FailedCount:    len(status.Failed),
		CompletedIDs:   status.Completed,
		FailedIDs:      status.Failed,
		Result:         string(status.Result),
	}
}

// splitResourcePath parses prefix-relative paths of the form {id} or
// {id}/{action}.
func splitResourcePath(path, prefix string) (id, action string, ok bool) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == path || rest == "" {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	switch len(parts) {
	case 1:
		return parts[0], "", parts[0] != ""
	case 2:
		return parts[0], parts[1], parts[0] != "" && parts[1] != ""
	default:
		return "", "", false
	}
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrSaturated):
		s.writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
