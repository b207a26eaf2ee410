// Package server exposes the virtual library over HTTP. Files are served
// with byte-range support straight off a session's read surface, so range
// probes of the trailing tag reach the session's reversed-access path
// without buffering the whole file.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olivier-w/mp3mirror/internal/library"
	"github.com/olivier-w/mp3mirror/internal/transcode"
)

// FileSystem is the library surface the server consumes.
type FileSystem interface {
	Open(name string) (*library.OpenFile, error)
	List(name string) ([]library.Entry, error)
}

// Server serves a virtual library tree.
type Server struct {
	fs  FileSystem
	log hclog.Logger
}

// New returns a server over fs.
func New(fs FileSystem, log hclog.Logger) *Server {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Server{fs: fs, log: log.Named("server")}
}

// Handler returns the routed handler with logging and metrics applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.PathPrefix("/").HandlerFunc(s.handleGet).Methods(http.MethodGet, http.MethodHead)
	return Logging(s.log)(r)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Path

	f, err := s.fs.Open(name)
	switch {
	case err == nil:
	case errors.Is(err, library.ErrIsDirectory):
		s.serveListing(w, name)
		return
	case errors.Is(err, fs.ErrNotExist):
		http.NotFound(w, r)
		return
	case errors.Is(err, library.ErrInvalidPath):
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	case errors.Is(err, transcode.ErrSourceUnavailable),
		errors.Is(err, transcode.ErrMalformedSource),
		errors.Is(err, transcode.ErrCodecInit):
		s.log.Error("opening session", "path", name, "error", err)
		http.Error(w, "transcode unavailable", http.StatusInternalServerError)
		return
	default:
		s.log.Error("opening file", "path", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	content := io.NewSectionReader(f, 0, f.Size())
	http.ServeContent(w, r, f.Name, f.ModTime, content)
}

func (s *Server) serveListing(w http.ResponseWriter, name string) {
	entries, err := s.fs.List(name)
	if err != nil {
		s.log.Error("listing directory", "path", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		s.log.Error("encoding listing", "path", name, "error", err)
	}
}
