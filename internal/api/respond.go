package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// failureBody is the JSON failure envelope every error renders into.
// Field names are part of the wire contract.
type failureBody struct {
	Status       string `json:"status"`
	StatusCode   int    `json:"status_code"`
	Action       string `json:"action"`
	Target       string `json:"target"`
	ExceptionCls string `json:"exception_cls"`
	ExceptionMsg string `json:"exception_msg"`
}

// respondJSON writes v as the response body. When the request carries a
// callback query parameter the body is wrapped in a JSONP function call
// and served as application/javascript.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if cb := r.URL.Query().Get("callback"); cb != "" {
		w.Header().Set("Content-Type", "application/javascript")
		w.WriteHeader(status)
		fmt.Fprintf(w, "%s(%s)", cb, data)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// RespondError renders any error as the structured failure envelope for
// the given action and target.
func RespondError(w http.ResponseWriter, r *http.Request, action, target string, err error) {
	apiErr := translate(err)

	logAttrs := []slog.Attr{
		slog.String("action", action),
		slog.String("target", target),
		slog.Int("status_code", apiErr.Status),
		slog.String("exception_cls", apiErr.Class),
		slog.String("error", err.Error()),
		slog.String("path", r.URL.Path),
	}
	level := slog.LevelDebug
	if apiErr.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	} else if apiErr.Status == http.StatusTooManyRequests {
		level = slog.LevelWarn
	}
	slog.LogAttrs(r.Context(), level, "API error response", logAttrs...)

	respondJSON(w, r, apiErr.Status, failureBody{
		Status:       "failed",
		StatusCode:   apiErr.Status,
		Action:       action,
		Target:       target,
		ExceptionCls: apiErr.Class,
		ExceptionMsg: apiErr.Msg,
	})
}
