package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"betterauth/internal/autherr"
	"betterauth/internal/domain"
)

// maxRequest bounds a request body.
const maxRequest = 1 << 20

// Router serves every protocol path as POST and the response key as GET.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	for path := range s.routes {
		r.HandleFunc(path, s.servePost(path)).Methods(http.MethodPost)
	}
	r.HandleFunc(KeyPath, s.serveKey).Methods(http.MethodGet)
	r.Use(accessLog)
	return r
}

func (s *Server) servePost(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequest))
		if err != nil {
			WriteError(w, autherr.Connection(err))
			return
		}
		out, err := s.Handle(r.Context(), path, body)
		if err != nil {
			WriteError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out)
	}
}

func (s *Server) serveKey(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Identity  string `json:"identity"`
		PublicKey string `json:"publicKey"`
	}{s.identity, s.ResponsePublicKey()})
}

// WriteError writes err in the {"error":{...}} wire shape with a status
// derived from its kind.
func WriteError(w http.ResponseWriter, err error) {
	var ae *autherr.Error
	if !errors.As(err, &ae) {
		log.Errorf("unhandled server error: %v", err)
		ae = autherr.Newf(autherr.KindUnknown, "internal server error")
	}
	body, merr := json.Marshal(ae)
	if merr != nil {
		http.Error(w, "failed handling request", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusFor(ae.Kind))
	_, _ = w.Write(body)
}

// StatusFor maps an error kind to an HTTP status.
func StatusFor(k autherr.Kind) int {
	switch k {
	case autherr.KindNotFound:
		return http.StatusNotFound
	case autherr.KindAlreadyExists:
		return http.StatusConflict
	case autherr.KindIdentityDeleted:
		return http.StatusGone
	case autherr.KindDeviceRevoked, autherr.KindPermissionDenied, autherr.KindMismatchedIdentities:
		return http.StatusForbidden
	case autherr.KindSignatureVerificationFailed, autherr.KindExpiredNonce, autherr.KindIncorrectNonce,
		autherr.KindNonceReplay, autherr.KindExpiredToken, autherr.KindInvalidToken, autherr.KindFutureToken:
		return http.StatusUnauthorized
	case autherr.KindStorageUnavailable, autherr.KindStorageCorruption, autherr.KindUnknown:
		return http.StatusInternalServerError
	case autherr.KindRotation, autherr.KindRecovery, autherr.KindInvalidState:
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// accessLog records method, path, status, bytes and duration of each request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.WithFields(log.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"remote":     r.RemoteAddr,
			"status":     rec.status,
			"bytes":      rec.bytes,
			"duration":   time.Since(start),
			"request_id": r.Header.Get("X-Request-ID"),
		}).Info("request")
	})
}

// LocalNetwork delivers requests to a Server in process.
type LocalNetwork struct {
	Server *Server
}

func (n LocalNetwork) SendRequest(ctx context.Context, path string, message []byte) ([]byte, error) {
	return n.Server.Handle(ctx, path, message)
}

var _ domain.Network = LocalNetwork{}
