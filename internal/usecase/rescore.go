package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/wavelead/crm-engine/internal/entity"
)

const defaultChunkSize = 200

// Rescorer applies the scoring engine to stored leads. Rescoring is a batch
// operation driven by ingestion events, never computed per request. Both
// entrypoints are idempotent: same inputs, same stored score.
type Rescorer struct {
	Leads  LeadRepositoryInterface
	Groups GroupRepositoryInterface
	Rules  RuleRepositoryInterface

	Config    ScoreConfig
	ChunkSize int
	Now       func() time.Time
}

func NewRescorer(leads LeadRepositoryInterface, groups GroupRepositoryInterface, rules RuleRepositoryInterface, cfg ScoreConfig) *Rescorer {
	return &Rescorer{
		Leads:     leads,
		Groups:    groups,
		Rules:     rules,
		Config:    cfg,
		ChunkSize: defaultChunkSize,
		Now:       time.Now,
	}
}

func (r *Rescorer) RescoreLead(ctx context.Context, leadID string) (*entity.ScoreResult, error) {
	lead, err := r.Leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	groups, rules, err := r.snapshot(ctx, lead.UserID)
	if err != nil {
		return nil, err
	}

	result := ComputeScore(lead, groups, rules, r.Now(), r.Config)
	if err := r.Leads.UpdateScore(ctx, lead.ID, result.Score, result.Segment); err != nil {
		return nil, err
	}
	return &result, nil
}

// RescoreAll walks every lead of the user in chunks. Each chunk is scored in
// parallel because computations are independent and read only the registry
// snapshot taken once up front.
func (r *Rescorer) RescoreAll(ctx context.Context, userID string) (int, error) {
	groups, rules, err := r.snapshot(ctx, userID)
	if err != nil {
		return 0, err
	}

	chunkSize := r.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	now := r.Now()

	processed := 0
	for offset := 0; ; offset += chunkSize {
		leads, err := r.Leads.ListChunk(ctx, userID, offset, chunkSize)
		if err != nil {
			return processed, fmt.Errorf("rescore chunk at offset %d: %w", offset, err)
		}
		if len(leads) == 0 {
			break
		}

		var wg sync.WaitGroup
		for _, lead := range leads {
			wg.Add(1)
			go func(lead *entity.Lead) {
				defer wg.Done()
				result := ComputeScore(lead, groups, rules, now, r.Config)
				if result.Score == lead.LeadScore && result.Segment == lead.Segment {
					return
				}
				if err := r.Leads.UpdateScore(ctx, lead.ID, result.Score, result.Segment); err != nil {
					log.Printf("rescore: failed to store score for lead %s: %v", lead.ID, err)
				}
			}(lead)
		}
		wg.Wait()

		processed += len(leads)
		if len(leads) < chunkSize {
			break
		}
	}

	return processed, nil
}

func (r *Rescorer) snapshot(ctx context.Context, userID string) ([]*entity.WhatsAppGroup, []*entity.EngagementRule, error) {
	groups, err := r.Groups.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load group registry: %w", err)
	}
	rules, err := r.Rules.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load rule registry: %w", err)
	}
	return groups, rules, nil
}
