package httputils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultClient is used for outbound provider calls.
var DefaultClient = &http.Client{Timeout: 120 * time.Second}

// StatusError is returned when the remote side answers with a non-2xx code.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status: %d %s", e.Code, e.Body)
}

// PostJSON posts body as JSON and decodes the reply into resp.
func PostJSON(ctx context.Context, url string, body interface{}, resp interface{}) error {
	return PostJSONWithAuth(ctx, url, "", body, resp)
}

// PostJSONWithAuth is PostJSON with a bearer token, skipped when apiKey is empty.
func PostJSONWithAuth(ctx context.Context, url, apiKey string, body interface{}, resp interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	r, err := DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer r.Body.Close()
	if r.StatusCode < 200 || r.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(r.Body, 4096))
		return &StatusError{Code: r.StatusCode, Body: string(b)}
	}
	if resp != nil {
		return json.NewDecoder(r.Body).Decode(resp)
	}
	return nil
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
