package handler

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/painpoint-labs/painpoint/errors"
	"github.com/painpoint-labs/painpoint/internal/adapter/dto/graph"
	"github.com/painpoint-labs/painpoint/internal/adapter/presenter"
	"github.com/painpoint-labs/painpoint/internal/domain/entities"
	"github.com/painpoint-labs/painpoint/internal/domain/repositories"
	"github.com/painpoint-labs/painpoint/internal/infrastructure/cache"
)

const (
	graphCacheKey = "graph:v1"
	graphCacheTTL = 30 * time.Second

	defaultListLimit = 20
	maxListLimit     = 100

	defaultTopLimit = 10
	maxTopLimit     = 50
)

// Graph serves the derived read views: opportunities, themes and the
// full theme tree
type Graph struct {
	opps   repositories.OpportunityRepository
	themes repositories.ThemeRepository
	cache  cache.Store
	logger *zap.Logger
}

// NewGraphHandler creates a new graph handler. cache may be nil, which
// disables response caching.
func NewGraphHandler(opps repositories.OpportunityRepository, themes repositories.ThemeRepository, store cache.Store, logger *zap.Logger) *Graph {
	return &Graph{
		opps:   opps,
		themes: themes,
		cache:  store,
		logger: logger,
	}
}

// Invalidate drops the cached graph. The ingestion pipeline calls this
// after every processed meeting.
func (h *Graph) Invalidate(ctx context.Context) {
	if h.cache != nil {
		h.cache.Delete(ctx, graphCacheKey)
	}
}

// RecentOpportunities handles GET /v1/opportunities/recent
func (h *Graph) RecentOpportunities(c echo.Context) error {
	limit := parseLimit(c.QueryParam("limit"))

	filters := repositories.OpportunityFilters{
		Limit:        limit,
		WithEvidence: c.QueryParam("include_evidence") == "true",
	}
	if category := c.QueryParam("category"); category != "" {
		filters.Category = category
	}
	if sinceRaw := c.QueryParam("since"); sinceRaw != "" {
		since, err := time.Parse(time.RFC3339, sinceRaw)
		if err != nil {
			return HandleError(h.logger, c, apperrors.ErrInvalidArgument("since must be RFC3339").WithDetail("param", "since"))
		}
		filters.Since = &since
	}

	opps, err := h.opps.List(c.Request().Context(), filters)
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrDBQueryFailed(err))
	}

	return HandleSuccess(h.logger, c, http.StatusOK, presenter.ToOpportunityListResponse(opps))
}

// GetOpportunity handles GET /v1/opportunities/:id. Evidence is included
// when include_evidence=true.
func (h *Graph) GetOpportunity(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("invalid opportunity id").WithDetail("param", "id"))
	}

	opp, err := h.opps.FindByID(c.Request().Context(), id)
	if stdErrors.Is(err, entities.ErrOpportunityNotFound) {
		return HandleError(h.logger, c, apperrors.ErrNotFound("opportunity"))
	}
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrDBQueryFailed(err))
	}

	if c.QueryParam("include_evidence") != "true" {
		opp.Evidence = nil
	}
	return HandleSuccess(h.logger, c, http.StatusOK, presenter.ToOpportunityResponse(opp))
}

// ListThemes handles GET /v1/themes
func (h *Graph) ListThemes(c echo.Context) error {
	var (
		themes []*entities.Theme
		err    error
	)
	if sinceRaw := c.QueryParam("active_since"); sinceRaw != "" {
		cutoff, parseErr := time.Parse(time.RFC3339, sinceRaw)
		if parseErr != nil {
			return HandleError(h.logger, c, apperrors.ErrInvalidArgument("active_since must be RFC3339").WithDetail("param", "active_since"))
		}
		themes, err = h.themes.ListActiveSince(c.Request().Context(), cutoff)
	} else {
		themes, err = h.themes.ListAll(c.Request().Context())
	}
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrDBQueryFailed(err))
	}

	return HandleSuccess(h.logger, c, http.StatusOK, presenter.ToThemeListResponse(themes))
}

// TopOpportunities handles GET /v1/themes/:name/top-opportunities,
// returning the theme's members ordered by impact score descending
func (h *Graph) TopOpportunities(c echo.Context) error {
	label := entities.NormalizeThemeLabel(c.Param("name"))
	limit := parseLimitBounded(c.QueryParam("limit"), defaultTopLimit, maxTopLimit)

	theme, err := h.themes.FindByLabel(c.Request().Context(), label)
	if stdErrors.Is(err, entities.ErrThemeNotFound) {
		return HandleError(h.logger, c, apperrors.ErrNotFound("theme"))
	}
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrDBQueryFailed(err))
	}

	opps, err := h.opps.ListByTheme(c.Request().Context(), theme.ID, limit)
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrDBQueryFailed(err))
	}

	resp := map[string]interface{}{
		"theme":         presenter.ToThemeResponse(theme),
		"opportunities": presenter.ToOpportunityListResponse(opps),
	}
	return HandleSuccess(h.logger, c, http.StatusOK, resp)
}

// GetGraph handles GET /v1/graph, serving the full theme tree from
// cache when fresh
func (h *Graph) GetGraph(c echo.Context) error {
	ctx := c.Request().Context()

	if h.cache != nil {
		if cached, ok := h.cache.Get(ctx, graphCacheKey); ok {
			return c.JSONBlob(http.StatusOK, []byte(cached))
		}
	}

	resp, err := h.buildGraph(ctx)
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrDBQueryFailed(err))
	}

	envelope := success{
		Code:    apperrors.ErrorCode_HTTP_OK,
		Message: "success",
		Data:    resp,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInternal(err))
	}

	if h.cache != nil {
		h.cache.Set(ctx, graphCacheKey, string(payload), graphCacheTTL)
	}
	return c.JSONBlob(http.StatusOK, payload)
}

func (h *Graph) buildGraph(ctx context.Context) (*graph.GraphResponse, error) {
	themes, err := h.themes.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	resp := &graph.GraphResponse{Generated: time.Now().UTC()}
	for _, t := range themes {
		members, err := h.opps.ListByTheme(ctx, t.ID, 0)
		if err != nil {
			return nil, err
		}
		node := graph.ThemeNode{Theme: *presenter.ToThemeResponse(t)}
		for _, o := range members {
			node.Opportunities = append(node.Opportunities, *presenter.ToOpportunityResponse(o))
		}
		resp.Themes = append(resp.Themes, node)
	}

	all, err := h.opps.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, o := range all {
		if o.ThemeID == nil {
			resp.Unassigned = append(resp.Unassigned, *presenter.ToOpportunityResponse(o))
		}
	}
	return resp, nil
}

func parseLimit(raw string) int {
	return parseLimitBounded(raw, defaultListLimit, maxListLimit)
}

func parseLimitBounded(raw string, def, max int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
