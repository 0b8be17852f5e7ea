// Package handlers implements the HTTP handlers behind internal/api's
// routes. Grounded on the teacher's internal/api/handlers package
// (ErrorResponse/SuccessResponse envelopes, per-resource Handler structs
// holding their service/repository dependencies), with encoding/json
// replaced by json-iterator/go to match the rest of the codebase's JSON
// stack.
package handlers

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"tychoorderbook/internal/apperr"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrorResponse is the standard error envelope for every API endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is the standard success envelope for endpoints that
// return a message alongside data.
type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps an apperr.Code to an HTTP status and writes the
// standard ErrorResponse envelope.
func writeError(w http.ResponseWriter, err error) {
	code := "INTERNAL"
	status := http.StatusInternalServerError

	var ae *apperr.Error
	if errors.As(err, &ae) {
		code = string(ae.Code)
		switch ae.Code {
		case apperr.CodeInvalidPair:
			status = http.StatusBadRequest
		case apperr.CodeUnquotable, apperr.CodeSimError:
			status = http.StatusUnprocessableEntity
		case apperr.CodeNotReady:
			status = http.StatusServiceUnavailable
		case apperr.CodeRPCUnavailable:
			status = http.StatusBadGateway
		case apperr.CodeUpstreamDecode:
			status = http.StatusBadGateway
		}
	}

	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}
