package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/mcpguard/fnadapter/internal/dispatch"
	"github.com/mcpguard/fnadapter/internal/envelope"
)

// maxBodyBytes bounds a request envelope in HTTP mode.
const maxBodyBytes = 8 << 20

type API struct {
	dispatcher *dispatch.Dispatcher
	log        zerolog.Logger
}

func NewAPI(d *dispatch.Dispatcher, log zerolog.Logger) *API {
	return &API{
		dispatcher: d,
		log:        log,
	}
}

// Router returns the HTTP routes of the adapter.
func (api *API) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/invoke", api.Invoke).Methods(http.MethodPost)
	router.HandleFunc("/functions", api.Functions).Methods(http.MethodGet)
	router.HandleFunc("/health", api.Health).Methods(http.MethodGet)
	return router
}

// Invoke answers one request envelope with one response document. A malformed
// envelope gets a 400 and no response document, as on stdio.
func (api *API) Invoke(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-Id", requestID)
	log := api.log.With().Str("request_id", requestID).Logger()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Error reading request body", http.StatusBadRequest)
		return
	}
	r.Body.Close()

	req, err := envelope.Decode(body)
	if err != nil {
		log.Info().Err(err).Msg("rejecting request")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := api.dispatcher.Dispatch(req)
	log.Debug().Str("function", req.FunctionName).Str("status", string(resp.Status)).Msg("invoked")

	w.Header().Set("Content-Type", "application/json")
	if err := resp.Encode(w); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func (api *API) Functions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{
		"functions": api.dispatcher.Names(),
	})
}

func (api *API) Health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}
