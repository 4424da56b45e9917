package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gabapcia/chainlens/internal/chains"
	"github.com/gabapcia/chainlens/internal/pkg/logger"
	"github.com/gabapcia/chainlens/internal/source"
)

// errorBody is the uniform JSON error envelope.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps the typed error taxonomy onto HTTP status codes. Anything
// outside the taxonomy is an internal error; its details stay in the logs.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, chains.ErrUnconfiguredChain):
		status = http.StatusBadRequest
	case errors.Is(err, source.ErrEntityNotFound):
		status = http.StatusNotFound
	case errors.Is(err, source.ErrInvalidCredential):
		status = http.StatusUnauthorized
	case errors.Is(err, source.ErrNoKeyedAPI):
		status = http.StatusBadRequest
	case errors.Is(err, source.ErrUnsupportedOperation):
		status = http.StatusNotImplemented
	case errors.Is(err, source.ErrSourceExhausted):
		status = http.StatusBadGateway
	default:
		logger.Error(r.Context(), "unhandled error serving request",
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}

	writeJSON(w, status, errorBody{Error: err.Error()})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListChains(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.All())
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing query parameter q"})
		return
	}

	writeJSON(w, http.StatusOK, s.service.DetectChains(query))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing query parameter q"})
		return
	}

	results, err := s.service.Search(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleAddressInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.AddressInfo(r.Context(), chi.URLParam(r, "chain"), chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleTransactionInfo(w http.ResponseWriter, r *http.Request) {
	tx, err := s.service.TransactionInfo(r.Context(), chi.URLParam(r, "chain"), chi.URLParam(r, "hash"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleBlockInfo(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.ParseUint(chi.URLParam(r, "number"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "block number must be a decimal integer"})
		return
	}

	block, err := s.service.BlockInfo(r.Context(), chi.URLParam(r, "chain"), number)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, block)
}

func (s *Server) handleTokenInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.TokenInfo(r.Context(), chi.URLParam(r, "chain"), chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleLatestTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.service.LatestTransactions(r.Context(), chi.URLParam(r, "chain"), queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleLargeTransactions(w http.ResponseWriter, r *http.Request) {
	minValue := 0.0
	if raw := r.URL.Query().Get("min"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "min must be a number"})
			return
		}
		minValue = parsed
	}

	txs, err := s.service.LargeTransactions(r.Context(), chi.URLParam(r, "chain"), minValue, queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.service.Analytics(r.Context(), chi.URLParam(r, "chain"), queryInt(r, "window", 0))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleValidateKey(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ValidateAPIKey(r.Context(), chi.URLParam(r, "chain")); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "valid"})
}
