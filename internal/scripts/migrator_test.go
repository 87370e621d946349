package scripts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	names, err := Migrations()
	require.NoError(t, err)
	assert.Contains(t, names, "000001_create_redirect_settings.up.sql")
	assert.Contains(t, names, "000001_create_redirect_settings.down.sql")
}

func TestRunMigrations_BadURI(t *testing.T) {
	err := RunMigrations("unknown://nowhere")
	assert.Error(t, err)
}
