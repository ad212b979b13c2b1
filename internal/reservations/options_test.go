package reservations

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingDirectory struct{ *MemoryStore }

func (failingDirectory) Departments(ctx context.Context) ([]string, error) {
	return nil, errors.New("db down")
}

func serveOptions(t *testing.T, dir Directory) OptionsResponse {
	t.Helper()
	rec := httptest.NewRecorder()
	NewOptionsHandler(dir, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reservation/options/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp OptionsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestOptionsHandlerDirectory(t *testing.T) {
	resp := serveOptions(t, NewMemoryStore(SeedDoctors()))
	assert.Equal(t, "directory", resp.Source)
	assert.Contains(t, resp.Departments, "정형외과")
	assert.NotEmpty(t, resp.Doctors)
}

func TestOptionsHandlerFallback(t *testing.T) {
	resp := serveOptions(t, failingDirectory{NewMemoryStore(nil)})
	assert.Equal(t, "fallback", resp.Source)
	assert.Contains(t, resp.Departments, "내과")
	assert.Empty(t, resp.Doctors)

	resp = serveOptions(t, nil)
	assert.Equal(t, "fallback", resp.Source)

	resp = serveOptions(t, NewMemoryStore(nil))
	assert.Equal(t, "fallback", resp.Source, "empty directory falls back")
}
