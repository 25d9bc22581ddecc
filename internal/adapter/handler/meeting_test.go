package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/painpoint-labs/painpoint/internal/adapter/repository"
	"github.com/painpoint-labs/painpoint/internal/domain/entities"
	"github.com/painpoint-labs/painpoint/internal/domain/repositories"
	"github.com/painpoint-labs/painpoint/internal/infrastructure/cache"
	"github.com/painpoint-labs/painpoint/internal/usecase/cluster"
	"github.com/painpoint-labs/painpoint/internal/usecase/extract"
	"github.com/painpoint-labs/painpoint/internal/usecase/ingest"
	"github.com/painpoint-labs/painpoint/internal/usecase/theme"
	pkgvalidator "github.com/painpoint-labs/painpoint/pkg/validator"
)

type testEnv struct {
	e           *echo.Echo
	coordinator *ingest.Coordinator
	meetings    repositories.MeetingRepository
	opps        repositories.OpportunityRepository
	themes      repositories.ThemeRepository
	meeting     *Meeting
	graph       *Graph
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	meetings := repository.NewMemoryMeetingRepository(store)
	opps := repository.NewMemoryOpportunityRepository(store, 0.5)
	themes := repository.NewMemoryThemeRepository(store)

	clusterer := cluster.NewClusterer(opps, cluster.NewIndex(), cluster.DefaultConfig(), zap.NewNop())
	aggregator := theme.NewAggregator(themes, opps, theme.DefaultThreshold, zap.NewNop())
	coordinator := ingest.NewCoordinator(meetings, extract.NewExtractor(nil), clusterer, aggregator, nil, nil, 10, zap.NewNop())

	e := echo.New()
	e.Validator = pkgvalidator.New()

	return &testEnv{
		e:           e,
		coordinator: coordinator,
		meetings:    meetings,
		opps:        opps,
		themes:      themes,
		meeting:     NewMeetingHandler(coordinator, meetings, zap.NewNop()),
		graph:       NewGraphHandler(opps, themes, cache.NewMemoryStore(), zap.NewNop()),
	}
}

func (env *testEnv) request(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	return rec, env.e.NewContext(req, rec)
}

func TestCreateMeeting_AcceptedWithQueuedStatus(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.request(t, http.MethodPost, "/v1/meetings",
		`{"title":"MegaStore sync","notes":"Dashboard is slow during peak hours.","source":"manual"}`)
	require.NoError(t, env.meeting.CreateMeeting(c))

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		Data struct {
			MeetingID string `json:"meeting_id"`
			Status    string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "queued", resp.Data.Status)
	assert.NotEmpty(t, resp.Data.MeetingID)
}

func TestCreateMeeting_ValidationFailures(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		body string
	}{
		{"title too short", `{"title":"ab","notes":"Long enough notes for the validator."}`},
		{"notes too short", `{"title":"Valid title","notes":"short"}`},
		{"unknown source", `{"title":"Valid title","notes":"Long enough notes here.","source":"telegraph"}`},
		{"missing title", `{"notes":"Long enough notes for the validator."}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, c := env.request(t, http.MethodPost, "/v1/meetings", tc.body)
			require.NoError(t, env.meeting.CreateMeeting(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateMeeting_MalformedJSONRejected(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.request(t, http.MethodPost, "/v1/meetings", `{"title": "unterminated`)
	require.NoError(t, env.meeting.CreateMeeting(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMeetingStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m, err := env.coordinator.Ingest(ctx, "MegaStore sync", "Dashboard is slow during peak hours.", entities.MeetingSourceManual, nil)
	require.NoError(t, err)
	require.NoError(t, env.coordinator.Process(ctx, m.ID))

	rec, c := env.request(t, http.MethodGet, "/v1/meetings/"+m.ID.String()+"/status", "")
	c.SetParamNames("id")
	c.SetParamValues(m.ID.String())
	require.NoError(t, env.meeting.GetMeetingStatus(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"done"`)
}

func TestGetMeetingStatus_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.request(t, http.MethodGet, "/v1/meetings/00000000-0000-0000-0000-000000000000/status", "")
	c.SetParamNames("id")
	c.SetParamValues("00000000-0000-0000-0000-000000000000")
	require.NoError(t, env.meeting.GetMeetingStatus(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetMeetingStatus_InvalidID(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.request(t, http.MethodGet, "/v1/meetings/not-a-uuid/status", "")
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")
	require.NoError(t, env.meeting.GetMeetingStatus(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
