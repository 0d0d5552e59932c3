// Package api exposes a small introspection surface over the session
// registry: open sessions, their pending counts, and the catalog's domains.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"cdpclient/internal/api/middleware"
	"cdpclient/internal/catalog"
	"cdpclient/internal/session"
)

type Server struct {
	router   *mux.Router
	server   *http.Server
	registry *session.Registry
	catalog  *catalog.Catalog
}

func NewServer(registry *session.Registry, cat *catalog.Catalog, port string) *Server {
	router := mux.NewRouter()

	s := &Server{
		router:   router,
		registry: registry,
		catalog:  cat,
		server: &http.Server{
			Addr:    ":" + port,
			Handler: router,
		},
	}

	s.setupRoutes()

	return s
}

func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logging)
	s.router.Use(middleware.Recovery)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{targetId}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/catalog/domains", s.handleListDomains).Methods("GET")

	s.router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": s.registry.List(),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	targetID := vars["targetId"]

	sess, ok := s.registry.Get(targetID)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, sess.ToModel())
}

func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"domains": s.catalog.Domains(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
