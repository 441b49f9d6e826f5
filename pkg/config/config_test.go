package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ShutdownConfig_Context_OutlivesCancelledParent(t *testing.T) {
	// given
	cfg := ShutdownConfig{Timeout: time.Minute}
	parent, cancelParent := context.WithCancel(context.Background())
	cancelParent()

	// when
	ctx, cancel := cfg.Context(parent)
	defer cancel()

	// then
	require.NoError(t, ctx.Err())
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func Test_ShutdownConfig_Validate(t *testing.T) {
	assert.NoError(t, (&ShutdownConfig{Timeout: time.Second}).Validate())
	assert.EqualError(t, (&ShutdownConfig{}).Validate(), "shutdown.timeout must be positive, got 0s")
}

func Test_PProfConfig_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     PProfConfig
		wantErr bool
	}{
		{name: "disabled ignores address", cfg: PProfConfig{}},
		{name: "enabled with host and port", cfg: PProfConfig{Enabled: true, Addr: "localhost:6060"}},
		{name: "enabled with port only", cfg: PProfConfig{Enabled: true, Addr: ":6060"}},
		{name: "enabled without address", cfg: PProfConfig{Enabled: true}, wantErr: true},
		{name: "enabled without port", cfg: PProfConfig{Enabled: true, Addr: "localhost"}, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			err := tc.cfg.Validate()
			// then
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func Test_PProfConfig_Server(t *testing.T) {
	// given
	cfg := PProfConfig{Enabled: true, Addr: "localhost:6060"}

	// when
	srv := cfg.Server()
	index := httptest.NewRecorder()
	srv.Handler.ServeHTTP(index, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	other := httptest.NewRecorder()
	srv.Handler.ServeHTTP(other, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	// then
	assert.Equal(t, "localhost:6060", srv.Addr)
	assert.Equal(t, http.StatusOK, index.Code)
	assert.Equal(t, http.StatusNotFound, other.Code)
}
