package api

import (
	"context"
	"dbprobe/internal/models"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProber implements Prober for testing
type MockProber struct {
	mock.Mock
}

func (m *MockProber) Run(ctx context.Context) models.ProbeResult {
	args := m.Called(ctx)
	return args.Get(0).(models.ProbeResult)
}

func TestNewHandlers(t *testing.T) {
	prober := &MockProber{}
	handlers := NewHandlers(prober)

	assert.NotNil(t, handlers)
	assert.Equal(t, prober, handlers.prober)
}

func TestHandlers_ServeProbe(t *testing.T) {
	tests := []struct {
		name   string
		result models.ProbeResult
	}{
		{
			name: "connected",
			result: models.ProbeResult{
				CurrentDate:      "Thursday, October 15, 2026 2:05 PM",
				Status:           "Connected to db, 295 rows found",
				DeploymentMethod: "GitHub Actions",
			},
		},
		{
			name: "connect failure is still 200",
			result: models.ProbeResult{
				CurrentDate:      "Thursday, October 15, 2026 2:05 PM",
				Status:           "Couldn't open db connection: login failed",
				DeploymentMethod: "Unknown",
			},
		},
		{
			name: "query failure is still 200",
			result: models.ProbeResult{
				CurrentDate:      "Thursday, October 15, 2026 2:05 PM",
				Status:           "Connected to DB but no data found: query returned no rows",
				DeploymentMethod: "Unknown",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := &MockProber{}
			prober.On("Run", mock.Anything).Return(tt.result).Once()
			handlers := NewHandlers(prober)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			recorder := httptest.NewRecorder()

			handlers.ServeProbe(recorder, req)

			assert.Equal(t, http.StatusOK, recorder.Code)
			assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

			var got models.ProbeResult
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
			assert.Equal(t, tt.result, got)
			prober.AssertExpectations(t)
		})
	}
}

func TestHandlers_ServeProbe_PassesRequestContext(t *testing.T) {
	type ctxKey struct{}
	prober := &MockProber{}
	prober.On("Run", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Value(ctxKey{}) == "marker"
	})).Return(models.ProbeResult{Status: "ok"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), ctxKey{}, "marker"))
	recorder := httptest.NewRecorder()

	NewHandlers(prober).ServeProbe(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	prober.AssertExpectations(t)
}
