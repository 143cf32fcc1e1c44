/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"encoding/json"
	"net/http/httptest"

	"github.com/stretchr/testify/require"
)

const contentTypeAppJSON = "application/json"

type errorRespData struct {
	Error struct {
		Domain string `json:"domain"`
		Code   string `json:"code"`
	} `json:"error"`
}

// RequireErrorInRecorder asserts that the recorded response carries the API error ({"error": {"domain": ..., "code": ...}}).
func RequireErrorInRecorder(t require.TestingT, resp *httptest.ResponseRecorder, wantHTTPCode int, wantErrDomain, wantErrCode string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.Equal(t, wantHTTPCode, resp.Code)
	require.Equal(t, contentTypeAppJSON, resp.Header().Get("Content-Type"))
	var errResp errorRespData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	require.Equal(t, wantErrDomain, errResp.Error.Domain)
	require.Equal(t, wantErrCode, errResp.Error.Code)
}

// RequireJSONInRecorder asserts that the recorded response body decoded into dest equals want.
func RequireJSONInRecorder(t require.TestingT, resp *httptest.ResponseRecorder, want, dest interface{}) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.Equal(t, contentTypeAppJSON, resp.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), dest))
	require.Equal(t, want, dest)
}

// RequireEmptyBodyInRecorder asserts that the recorded response has no body.
func RequireEmptyBodyInRecorder(t require.TestingT, resp *httptest.ResponseRecorder) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.Equal(t, 0, resp.Body.Len())
}
