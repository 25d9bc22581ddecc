package handler

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/painpoint-labs/painpoint/internal/domain/entities"
	"github.com/painpoint-labs/painpoint/internal/domain/repositories"
	"github.com/painpoint-labs/painpoint/internal/usecase/ingest"
)

const commandUsage = `commands:
  top [n]      highest-impact opportunities
  themes       themes by total impact
  recent [n]   recently updated opportunities
  status       pipeline status
  help         this message

aliases: show_new_opportunities (recent), themes_this_week (themes active in the last 7 days)
`

const themesWeekWindow = 7 * 24 * time.Hour

// Command serves GET /v1/cmd, a plain-text digest endpoint meant for
// chat-ops integrations that paste the response verbatim
type Command struct {
	opps        repositories.OpportunityRepository
	themes      repositories.ThemeRepository
	coordinator *ingest.Coordinator
	logger      *zap.Logger
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(opps repositories.OpportunityRepository, themes repositories.ThemeRepository, coordinator *ingest.Coordinator, logger *zap.Logger) *Command {
	return &Command{
		opps:        opps,
		themes:      themes,
		coordinator: coordinator,
		logger:      logger,
	}
}

// Run parses the text command and writes a plain-text digest
func (h *Command) Run(c echo.Context) error {
	fields := strings.Fields(strings.ToLower(c.QueryParam("text")))

	var (
		out string
		err error
	)
	switch {
	case len(fields) == 0, fields[0] == "help":
		out = commandUsage
	case fields[0] == "top":
		out, err = h.topDigest(c.Request().Context(), argLimit(fields, 5))
	case fields[0] == "themes":
		out, err = h.themesDigest(c.Request().Context())
	case fields[0] == "themes_this_week":
		out, err = h.themesWeekDigest(c.Request().Context())
	case fields[0] == "recent", fields[0] == "show_new_opportunities":
		out, err = h.recentDigest(c.Request().Context(), argLimit(fields, 5))
	case fields[0] == "status":
		out, err = h.statusDigest(c.Request().Context())
	default:
		out = fmt.Sprintf("unknown command %q\n\n%s", fields[0], commandUsage)
	}
	if err != nil {
		if h.logger != nil {
			h.logger.Error("command failed", zap.Strings("command", fields), zap.Error(err))
		}
		return c.String(http.StatusInternalServerError, "command failed: "+err.Error()+"\n")
	}

	return c.String(http.StatusOK, out)
}

func (h *Command) topDigest(ctx context.Context, limit int) (string, error) {
	opps, err := h.opps.ListAll(ctx)
	if err != nil {
		return "", err
	}
	// ListAll is ordered by update recency, re-rank by impact here
	sortByImpact(opps)
	if len(opps) > limit {
		opps = opps[:limit]
	}

	if len(opps) == 0 {
		return "no opportunities yet\n", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "top %d opportunities by impact:\n", len(opps))
	for i, o := range opps {
		fmt.Fprintf(&b, "%d. [%s] %s  impact=%.3f evidence=%d\n",
			i+1, o.Category, o.CustomerName(), o.ImpactScore, o.EvidenceCount)
	}
	return b.String(), nil
}

func (h *Command) themesDigest(ctx context.Context) (string, error) {
	themes, err := h.themes.ListAll(ctx)
	if err != nil {
		return "", err
	}
	if len(themes) == 0 {
		return "no themes yet\n", nil
	}
	var b strings.Builder
	b.WriteString("themes by total impact:\n")
	for i, t := range themes {
		fmt.Fprintf(&b, "%d. %s  opportunities=%d total=%.3f max=%.3f\n",
			i+1, t.Label, t.OpportunityCount, t.TotalImpact, t.MaxImpact)
	}
	return b.String(), nil
}

func (h *Command) themesWeekDigest(ctx context.Context) (string, error) {
	themes, err := h.themes.ListActiveSince(ctx, time.Now().Add(-themesWeekWindow))
	if err != nil {
		return "", err
	}
	if len(themes) == 0 {
		return "no themes active this week\n", nil
	}
	var b strings.Builder
	b.WriteString("themes active this week:\n")
	for i, t := range themes {
		fmt.Fprintf(&b, "%d. %s  opportunities=%d total=%.3f\n",
			i+1, t.Label, t.OpportunityCount, t.TotalImpact)
	}
	return b.String(), nil
}

func (h *Command) recentDigest(ctx context.Context, limit int) (string, error) {
	opps, err := h.opps.List(ctx, repositories.OpportunityFilters{Limit: limit})
	if err != nil {
		return "", err
	}
	if len(opps) == 0 {
		return "no opportunities yet\n", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d recently updated opportunities:\n", len(opps))
	for i, o := range opps {
		fmt.Fprintf(&b, "%d. [%s] %s  impact=%.3f updated=%s\n",
			i+1, o.Category, o.CustomerName(), o.ImpactScore, o.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return b.String(), nil
}

func (h *Command) statusDigest(ctx context.Context) (string, error) {
	pending, err := h.coordinator.Pending(ctx)
	if err != nil {
		return "", err
	}
	opps, err := h.opps.ListAll(ctx)
	if err != nil {
		return "", err
	}
	themes, err := h.themes.ListAll(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("pending meetings: %d\nopportunities: %d\nthemes: %d\n",
		pending, len(opps), len(themes)), nil
}

func argLimit(fields []string, fallback int) int {
	if len(fields) < 2 {
		return fallback
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n <= 0 || n > maxListLimit {
		return fallback
	}
	return n
}

func sortByImpact(opps []*entities.Opportunity) {
	sort.Slice(opps, func(i, j int) bool {
		return opps[i].ImpactScore > opps[j].ImpactScore
	})
}
