package pprof_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/issafronov/siteredirect/internal/pprof"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	srv := httptest.NewServer(pprof.Handler())
	defer srv.Close()

	for _, path := range []string{"/debug/pprof/", "/debug/pprof/goroutine?debug=1", "/debug/pprof/cmdline"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err, path)

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.NotEmpty(t, body, path)
	}
}

func TestStart_Disabled(t *testing.T) {
	assert.Nil(t, pprof.Start(""))
}
