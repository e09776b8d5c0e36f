package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/magicvilla/internal/villa"
)

// ReasonMalformedBody is reported when a request body is not valid JSON.
const ReasonMalformedBody = "malformed-body"

type errorBody struct {
	Error    string          `json:"error"`
	Problems []villa.Problem `json:"problems,omitempty"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string, problems ...villa.Problem) {
	jsonResponse(w, status, errorBody{Error: message, Problems: problems})
}

// serviceError maps a villa.Error to its HTTP status and body. Internal
// failures were already logged by the service; their details stay server-side.
func serviceError(w http.ResponseWriter, err error) {
	var e *villa.Error
	if !errors.As(err, &e) {
		slog.Error("unexpected handler error", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch e.Kind {
	case villa.KindInvalidInput:
		jsonError(w, http.StatusBadRequest, "invalid request", e.Problems...)
	case villa.KindNotFound:
		jsonError(w, http.StatusNotFound, "villa not found")
	default:
		jsonError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON decodes a JSON request body into target. An empty body leaves
// target untouched and is not an error. Anything after the first JSON value
// other than whitespace is rejected.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(target)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

var errTrailingData = errors.New("unexpected data after JSON value")

func malformedBody(w http.ResponseWriter, err error) {
	jsonError(w, http.StatusBadRequest, "invalid request body",
		villa.Problem{Reason: ReasonMalformedBody, Message: err.Error()})
}

// pathID parses the {id} path segment. Non-numeric ids are rejected here;
// numeric ones, including zero and negatives, are left to the service.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid villa id",
			villa.Problem{Field: "id", Reason: villa.ReasonInvalidID, Message: "id must be a positive integer"})
		return 0, false
	}
	return id, true
}
