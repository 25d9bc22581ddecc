package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCommandEnv(t *testing.T) (*testEnv, *Command) {
	t.Helper()
	env := newTestEnv(t)
	cmd := NewCommandHandler(env.opps, env.themes, env.coordinator, zap.NewNop())
	return env, cmd
}

func TestCommand_UsageOnEmptyText(t *testing.T) {
	env, cmd := newCommandEnv(t)

	rec, c := env.request(t, http.MethodGet, "/v1/cmd", "")
	require.NoError(t, cmd.Run(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "commands:")
}

func TestCommand_UnknownCommand(t *testing.T) {
	env, cmd := newCommandEnv(t)

	rec, c := env.request(t, http.MethodGet, "/v1/cmd?text=frobnicate", "")
	require.NoError(t, cmd.Run(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `unknown command "frobnicate"`)
}

func TestCommand_TopDigest(t *testing.T) {
	env, cmd := newCommandEnv(t)
	env.ingestProcessed(t, "MegaStore sync", "Dashboard is slow during peak hours.", map[string]interface{}{"escalation": true})
	env.ingestProcessed(t, "Acme Corp review", "The CSV export is broken, columns missing.", nil)

	rec, c := env.request(t, http.MethodGet, "/v1/cmd?text=top+5", "")
	require.NoError(t, cmd.Run(c))

	body := rec.Body.String()
	assert.Contains(t, body, "top 2 opportunities by impact:")
	// The escalated performance report outranks the bare export report
	assert.Contains(t, body, "1. [performance] MegaStore")
	assert.Contains(t, body, "2. [export] Acme Corp")
}

func TestCommand_ThemesDigest(t *testing.T) {
	env, cmd := newCommandEnv(t)
	env.ingestProcessed(t, "MegaStore sync", "Dashboard is slow during peak hours.", nil)

	rec, c := env.request(t, http.MethodGet, "/v1/cmd?text=themes", "")
	require.NoError(t, cmd.Run(c))

	assert.Contains(t, rec.Body.String(), "performance")
}

func TestCommand_Aliases(t *testing.T) {
	env, cmd := newCommandEnv(t)
	env.ingestProcessed(t, "MegaStore sync", "Dashboard is slow during peak hours.", nil)

	rec, c := env.request(t, http.MethodGet, "/v1/cmd?text=show_new_opportunities", "")
	require.NoError(t, cmd.Run(c))
	assert.Contains(t, rec.Body.String(), "recently updated opportunities")

	rec, c = env.request(t, http.MethodGet, "/v1/cmd?text=themes_this_week", "")
	require.NoError(t, cmd.Run(c))
	assert.Contains(t, rec.Body.String(), "themes active this week")

	rec, c = env.request(t, http.MethodGet, "/v1/cmd?text=help", "")
	require.NoError(t, cmd.Run(c))
	assert.Contains(t, rec.Body.String(), "commands:")
}

func TestCommand_StatusDigest(t *testing.T) {
	env, cmd := newCommandEnv(t)
	env.ingestProcessed(t, "MegaStore sync", "Dashboard is slow during peak hours.", nil)

	rec, c := env.request(t, http.MethodGet, "/v1/cmd?text=status", "")
	require.NoError(t, cmd.Run(c))

	body := rec.Body.String()
	assert.Contains(t, body, "pending meetings: 0")
	assert.Contains(t, body, "opportunities: 1")
	assert.Contains(t, body, "themes: 1")
}
