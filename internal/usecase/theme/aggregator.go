package theme

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/painpoint-labs/painpoint/internal/domain/entities"
	"github.com/painpoint-labs/painpoint/internal/domain/repositories"
)

// DefaultThreshold is the looser affinity bar for joining a theme.
// Themes group by broad category, so the bar sits well below the
// opportunity attach threshold.
const DefaultThreshold = 0.30

// Aggregator assigns opportunities to themes. It runs after every
// opportunity create or update, is idempotent, and re-evaluates
// membership lazily when an opportunity's dominant category shifts,
// never on a timer.
type Aggregator struct {
	themes    repositories.ThemeRepository
	opps      repositories.OpportunityRepository
	threshold float64
	mu        sync.Mutex
	logger    *zap.Logger
}

// NewAggregator creates a theme aggregator
func NewAggregator(themes repositories.ThemeRepository, opps repositories.OpportunityRepository, threshold float64, logger *zap.Logger) *Aggregator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Aggregator{
		themes:    themes,
		opps:      opps,
		threshold: threshold,
		logger:    logger,
	}
}

// Reconcile places the opportunity in the best-matching theme, creating
// one when nothing clears the threshold. Calling it again with an
// unchanged opportunity is a no-op apart from refreshed metrics.
// Themes are a derived, read-mostly view, so reconciliation serializes
// globally rather than per key.
func (a *Aggregator) Reconcile(ctx context.Context, opp *entities.Opportunity) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	label := entities.NormalizeThemeLabel(opp.DominantCategory())

	if opp.ThemeID != nil {
		current, err := a.themes.FindByID(ctx, *opp.ThemeID)
		if err == nil && labelAffinity(label, current.Label) >= a.threshold {
			// Dominant category unchanged enough, stay put
			return a.refreshMetrics(ctx, current)
		}
		if err != nil && !errors.Is(err, entities.ErrThemeNotFound) {
			return fmt.Errorf("failed to load current theme: %w", err)
		}
	}

	target, err := a.bestTheme(ctx, label)
	if err != nil {
		return err
	}
	if target == nil {
		target, err = a.createTheme(ctx, label)
		if err != nil {
			return err
		}
	}

	previousID := opp.ThemeID
	if previousID == nil || *previousID != target.ID {
		if err := a.opps.AssignTheme(ctx, opp.ID, &target.ID); err != nil {
			return fmt.Errorf("failed to assign theme: %w", err)
		}
		opp.ThemeID = &target.ID
		if a.logger != nil {
			a.logger.Info("opportunity assigned to theme",
				zap.String("opportunity_id", opp.ID.String()),
				zap.String("theme", target.Label),
			)
		}
		// The old theme lost a member, refresh its metrics too
		if previousID != nil {
			if old, err := a.themes.FindByID(ctx, *previousID); err == nil {
				if err := a.refreshMetrics(ctx, old); err != nil {
					return err
				}
			}
		}
	}

	return a.refreshMetrics(ctx, target)
}

// bestTheme returns the highest-affinity existing theme above the
// threshold, or nil when none qualifies
func (a *Aggregator) bestTheme(ctx context.Context, label string) (*entities.Theme, error) {
	// Exact label match is the common case and needs no scan
	if t, err := a.themes.FindByLabel(ctx, label); err == nil {
		return t, nil
	} else if !errors.Is(err, entities.ErrThemeNotFound) {
		return nil, fmt.Errorf("failed to look up theme %q: %w", label, err)
	}

	all, err := a.themes.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	var best *entities.Theme
	var bestScore float64
	for _, t := range all {
		if score := labelAffinity(label, t.Label); score >= a.threshold && score > bestScore {
			best = t
			bestScore = score
		}
	}
	return best, nil
}

func (a *Aggregator) createTheme(ctx context.Context, label string) (*entities.Theme, error) {
	t := entities.NewTheme(label)
	err := a.themes.Create(ctx, t)
	if errors.Is(err, entities.ErrConflict) {
		// Lost the race to another reconciliation, reuse the winner
		return a.themes.FindByLabel(ctx, label)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create theme %q: %w", label, err)
	}
	if a.logger != nil {
		a.logger.Info("theme created", zap.String("theme", t.Label))
	}
	return t, nil
}

func (a *Aggregator) refreshMetrics(ctx context.Context, t *entities.Theme) error {
	members, err := a.opps.ListByTheme(ctx, t.ID, 0)
	if err != nil {
		return fmt.Errorf("failed to list theme members: %w", err)
	}
	t.Recalculate(members)
	if err := a.themes.Update(ctx, t); err != nil {
		return fmt.Errorf("failed to update theme metrics: %w", err)
	}
	return nil
}

// labelAffinity scores how well a category label matches a theme label:
// exact match wins outright, containment counts as broad affinity, and
// otherwise the dash-token overlap decides ("export" vs "export-issues").
func labelAffinity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.6
	}
	aTokens := strings.Split(a, "-")
	bTokens := make(map[string]struct{})
	for _, t := range strings.Split(b, "-") {
		bTokens[t] = struct{}{}
	}
	var overlap int
	for _, t := range aTokens {
		if _, ok := bTokens[t]; ok {
			overlap++
		}
	}
	union := len(aTokens) + len(bTokens) - overlap
	if union == 0 {
		return 0
	}
	return float64(overlap) / float64(union)
}
