package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaddleExtractText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Images []string `json:"images"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Len(t, payload.Images, 1)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		_, _ = w.Write([]byte(`{"results":[[{"text":"Salary: 45,000","confidence":0.98},{"text":"  ","confidence":0.1},{"text":"Employment Type: Permanent","confidence":0.95}]]}`))
	}))
	defer srv.Close()

	c := NewPaddleClient(srv.URL, srv.Client())
	text, err := c.ExtractText(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "Salary: 45,000\nEmployment Type: Permanent", text)
}

func TestPaddleExtractTextServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewPaddleClient(srv.URL, srv.Client())
	_, err := c.ExtractText(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
