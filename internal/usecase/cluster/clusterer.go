package cluster

import (
	"context"
	"errors"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/painpoint-labs/painpoint/internal/domain/entities"
	"github.com/painpoint-labs/painpoint/internal/domain/repositories"
)

// Outcome is the two-branch result of an attach decision
type Outcome string

const (
	OutcomeAttached Outcome = "attached" // Signal joined an existing opportunity
	OutcomeCreated  Outcome = "created"  // Signal seeded a new opportunity
)

// AttachResult reports what the clusterer decided for a signal. Both
// branches are ordinary return values so callers can test each
// deterministically.
type AttachResult struct {
	Outcome     Outcome
	Opportunity *entities.Opportunity
	BestScore   float64
}

// Config holds the clustering knobs. These are configuration, not
// constants: the right values depend on real meeting data.
type Config struct {
	AttachThreshold     float64 // minimum similarity to merge instead of create
	RepeatCustomerDecay float64 // diminishing-returns factor for repeat reporters
	TopK                int     // candidates considered per attach decision
}

// DefaultConfig returns the tuned starting values
func DefaultConfig() Config {
	return Config{
		AttachThreshold:     0.55,
		RepeatCustomerDecay: 0.5,
		TopK:                5,
	}
}

// Clusterer owns all opportunity mutation: signals enter a cluster only
// through Attach, which serializes per (customer, category) so
// concurrent ingests of the same emerging problem converge on one
// opportunity.
type Clusterer struct {
	opps   repositories.OpportunityRepository
	index  *Index
	locks  *keyedMutex
	cfg    Config
	logger *zap.Logger
}

// NewClusterer creates a clusterer over the given repository and index
func NewClusterer(opps repositories.OpportunityRepository, index *Index, cfg Config, logger *zap.Logger) *Clusterer {
	if cfg.AttachThreshold <= 0 {
		cfg.AttachThreshold = DefaultConfig().AttachThreshold
	}
	if cfg.RepeatCustomerDecay <= 0 || cfg.RepeatCustomerDecay > 1 {
		cfg.RepeatCustomerDecay = DefaultConfig().RepeatCustomerDecay
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultConfig().TopK
	}
	return &Clusterer{
		opps:   opps,
		index:  index,
		locks:  newKeyedMutex(),
		cfg:    cfg,
		logger: logger,
	}
}

// Rebuild reloads the similarity index from the durable store
func (c *Clusterer) Rebuild(ctx context.Context) error {
	opps, err := c.opps.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list opportunities for index rebuild: %w", err)
	}
	for _, opp := range opps {
		evidence, err := c.opps.ListEvidence(ctx, opp.ID)
		if err != nil {
			return fmt.Errorf("failed to list evidence for %s: %w", opp.ID, err)
		}
		var keywords []string
		for _, s := range evidence {
			keywords = append(keywords, s.Keywords...)
		}
		c.index.Upsert(opp.ID, opp.CustomerName(), opp.Category, keywords, opp.UpdatedAt)
	}
	if c.logger != nil {
		c.logger.Info("similarity index rebuilt", zap.Int("opportunities", c.index.Len()))
	}
	return nil
}

// Attach decides whether the signal joins an existing opportunity or
// seeds a new one. The decision and the write happen under the
// per-(customer, category) lock; storage contention is retried with
// bounded backoff and never silently dropped.
func (c *Clusterer) Attach(ctx context.Context, signal *entities.Signal) (*AttachResult, error) {
	unlock := c.locks.Lock(clusterKey(signal))
	defer unlock()

	candidates := c.index.Query(signal.CustomerName(), signal.Category, signal.Keywords, c.cfg.TopK)

	var bestScore float64
	if len(candidates) > 0 {
		bestScore = candidates[0].Score
	}

	if len(candidates) > 0 && bestScore >= c.cfg.AttachThreshold {
		opp, err := c.attachTo(ctx, candidates[0].ID, signal)
		if err != nil {
			return nil, err
		}
		if c.logger != nil {
			c.logger.Info("signal attached to existing opportunity",
				zap.String("signal_id", signal.ID.String()),
				zap.String("opportunity_id", opp.ID.String()),
				zap.Float64("score", bestScore),
			)
		}
		return &AttachResult{Outcome: OutcomeAttached, Opportunity: opp, BestScore: bestScore}, nil
	}

	opp, err := c.create(ctx, signal)
	if err != nil {
		return nil, err
	}
	if c.logger != nil {
		c.logger.Info("signal seeded new opportunity",
			zap.String("signal_id", signal.ID.String()),
			zap.String("opportunity_id", opp.ID.String()),
			zap.String("category", opp.Category),
			zap.Float64("best_score", bestScore),
		)
	}
	return &AttachResult{Outcome: OutcomeCreated, Opportunity: opp, BestScore: bestScore}, nil
}

// attachTo appends the signal as evidence to an existing opportunity
func (c *Clusterer) attachTo(ctx context.Context, oppID uuid.UUID, signal *entities.Signal) (*entities.Opportunity, error) {
	var opp *entities.Opportunity
	err := c.retry(ctx, func() error {
		found, err := c.opps.FindByID(ctx, oppID)
		if err != nil {
			return err
		}
		found.AppendEvidence(signal, c.cfg.RepeatCustomerDecay)
		if err := c.opps.AppendEvidence(ctx, found, signal); err != nil {
			return err
		}
		opp = found
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to append evidence to opportunity %s: %w", oppID, err)
	}
	c.index.Upsert(opp.ID, opp.CustomerName(), opp.Category, signal.Keywords, opp.UpdatedAt)
	return opp, nil
}

// create seeds a new opportunity from the signal alone
func (c *Clusterer) create(ctx context.Context, signal *entities.Signal) (*entities.Opportunity, error) {
	opp := entities.NewOpportunity(signal, c.cfg.RepeatCustomerDecay)
	err := c.retry(ctx, func() error {
		return c.opps.Create(ctx, opp)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opportunity: %w", err)
	}
	c.index.Upsert(opp.ID, opp.CustomerName(), opp.Category, signal.Keywords, opp.UpdatedAt)
	return opp, nil
}

func clusterKey(s *entities.Signal) string {
	return s.CustomerName() + "\x00" + s.Category
}

// retry wraps a storage operation with bounded exponential backoff.
// Conflicts and transient errors are retried; not-found is permanent.
func (c *Clusterer) retry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = 5 * time.Second

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, entities.ErrOpportunityNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
}
