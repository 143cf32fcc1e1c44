/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package adminserver

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/acronis/go-respcache/log"
)

// ContentTypeAppJSON represents MIME media type for JSON.
const ContentTypeAppJSON = "application/json"

// ErrorDomain is the domain of all errors returned by the admin API.
const ErrorDomain = "RespCache"

// Error codes.
const (
	ErrCodeInternal         = "internalError"
	ErrCodeNotFound         = "notFound"
	ErrCodeMethodNotAllowed = "methodNotAllowed"
	ErrCodeInvalidBackend   = "invalidBackend"
	ErrCodeBadRequest       = "badRequest"
	ErrCodeStorageWrite     = "storageWriteFailed"
)

// Error represents error details in a response body.
type Error struct {
	Domain  string `json:"domain"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// ErrorResponseData wraps Error in a response body.
type ErrorResponseData struct {
	Err *Error `json:"error"`
}

func jsonMarshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes()[:buf.Len()-1], nil
}

// respondJSON writes respData as JSON with the status code. Nil respData means an empty body.
func respondJSON(rw http.ResponseWriter, statusCode int, respData interface{}, logger log.FieldLogger) {
	if respData == nil {
		rw.WriteHeader(statusCode)
		return
	}
	respJSON, err := jsonMarshal(respData)
	if err != nil {
		logger.Error("error while marshaling json for response body", log.Error(err))
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}
	rw.Header().Set("Content-Type", ContentTypeAppJSON)
	rw.WriteHeader(statusCode)
	if _, err = rw.Write(respJSON); err != nil {
		logger.Error("error while writing response body", log.Error(err))
	}
}

func respondError(rw http.ResponseWriter, statusCode int, code, message string, logger log.FieldLogger) {
	lvl := logger.Warn
	if statusCode >= http.StatusInternalServerError {
		lvl = logger.Error
	}
	lvl("error in response", log.String("error_code", code), log.String("error_message", message))
	respondJSON(rw, statusCode, ErrorResponseData{&Error{Domain: ErrorDomain, Code: code, Message: message}}, logger)
}
