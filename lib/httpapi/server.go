// Package httpapi exposes the async DB over a JSON HTTP API. Each handler
// submits one task to the bridge and blocks its own request goroutine until
// the task's callback fires, so the dispatch goroutine itself never serves
// requests.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"nbkv/lib/bridge"
	"nbkv/lib/engine"
	"nbkv/lib/logging"
)

const contentTypeJSON = "application/json"

// Server represents the HTTP server in front of one async DB.
type Server struct {
	db         *bridge.DB
	log        *logging.Logger
	httpServer *http.Server
}

// NewServer creates a new server instance listening on addr.
func NewServer(db *bridge.DB, addr string) *Server {
	s := &Server{
		db:  db,
		log: logging.GetLogger("http"),
	}

	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/kv/{key}", s.handleGet)
		r.Put("/kv/{key}", s.handlePut)
		r.Delete("/kv/{key}", s.handleDelete)
		r.Post("/batch", s.handleBatch)
		r.Get("/size", s.handleSize)
	})

	s.httpServer = &http.Server{Addr: addr, Handler: r}
	return s
}

// Handler returns the route handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Infof("listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --------------------------------------------------------------------------
// Handlers
// --------------------------------------------------------------------------

// callbackResult carries one callback invocation back to the request
// goroutine.
type callbackResult struct {
	err  error
	args []interface{}
}

// await submits one operation and blocks until its callback fires.
func await(submit func(bridge.Callback) error) ([]interface{}, error) {
	ch := make(chan callbackResult, 1)
	err := submit(func(err error, args ...interface{}) {
		ch <- callbackResult{err: err, args: args}
	})
	if err != nil {
		return nil, err
	}
	res := <-ch
	return res.args, res.err
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, NewOKResponse())
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	args, err := await(func(cb bridge.Callback) error {
		return s.db.Get(cb, []byte(key), false, true)
	})
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, NewErrorResponse(err.Error()))
		return
	}
	if args[0] == bridge.NotFound {
		s.writeJSON(w, http.StatusNotFound, NewNotFoundResponse())
		return
	}
	s.writeJSON(w, http.StatusOK, NewValueResponse(args[0].(string)))
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, NewErrorResponse(err.Error()))
		return
	}
	_, err = await(func(cb bridge.Callback) error {
		return s.db.Put(cb, []byte(key), value, syncParam(r))
	})
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, NewErrorResponse(err.Error()))
		return
	}
	s.writeJSON(w, http.StatusOK, NewSuccessResponse())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	_, err := await(func(cb bridge.Callback) error {
		return s.db.Delete(cb, []byte(key), syncParam(r))
	})
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, NewErrorResponse(err.Error()))
		return
	}
	s.writeJSON(w, http.StatusOK, NewSuccessResponse())
}

// batchOp is one operation in a batch request body.
type batchOp struct {
	Op    string `json:"op"` // "put" or "del"
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var ops []batchOp
	if err := json.NewDecoder(r.Body).Decode(&ops); err != nil {
		s.writeJSON(w, http.StatusBadRequest, NewErrorResponse(err.Error()))
		return
	}

	batch := engine.NewBatch()
	for _, op := range ops {
		switch op.Op {
		case "put":
			batch.Put([]byte(op.Key), []byte(op.Value))
		case "del":
			batch.Delete([]byte(op.Key))
		default:
			s.writeJSON(w, http.StatusBadRequest,
				NewErrorResponse(fmt.Sprintf("invalid batch op %q", op.Op)))
			return
		}
	}

	_, err := await(func(cb bridge.Callback) error {
		return s.db.Write(cb, batch, syncParam(r))
	})
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, NewErrorResponse(err.Error()))
		return
	}
	s.writeJSON(w, http.StatusOK, NewSuccessResponse())
}

func (s *Server) handleSize(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	limit := r.URL.Query().Get("limit")

	args, err := await(func(cb bridge.Callback) error {
		return s.db.ApproximateSize(cb, []byte(start), []byte(limit))
	})
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, NewErrorResponse(err.Error()))
		return
	}
	s.writeJSON(w, http.StatusOK, NewSizeResponse(args[0].(uint64)))
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func syncParam(r *http.Request) bool {
	sync, err := strconv.ParseBool(r.URL.Query().Get("sync"))
	return err == nil && sync
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Errorf("failed to encode response: %v", err)
	}
}
