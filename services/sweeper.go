// services/sweeper.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"agent-bounty-system/chain"
	"agent-bounty-system/models"
)

// Sweeper finds expired, undistributed bounties and triggers their one-time
// reward distribution.
type Sweeper struct {
	Pool BountyPool
}

func NewSweeper(pool BountyPool) *Sweeper {
	return &Sweeper{Pool: pool}
}

// Sweep reads all bounties fresh from the chain and distributes rewards for
// those past expiry and not yet distributed. Bounties the chain reports as
// already distributed are skipped silently; any other per-bounty failure is
// recorded and does not stop the remaining bounties.
func (s *Sweeper) Sweep(ctx context.Context) ([]models.SweepEntry, error) {
	bounties, err := s.Pool.AllBounties(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bounties: %w", err)
	}

	now := time.Now().Unix()
	log.Printf("[Sweeper] Scanning %d bounties at %d", len(bounties), now)

	results := make([]models.SweepEntry, 0)
	for _, b := range bounties {
		expiredAt := int64(b.ExpiredAt)
		if expiredAt > now || b.Distributed {
			continue
		}

		log.Printf("[Sweeper] Processing bounty %s (expired at %d)", b.BountyId, expiredAt)
		expiredISO := time.Unix(expiredAt, 0).UTC().Format(time.RFC3339)

		txHash, err := s.Pool.DistributeRewards(ctx, b.BountyId)
		if err != nil {
			if chain.IsAlreadyDistributed(err) {
				log.Printf("[Sweeper] Skipped bounty %s — already distributed", b.BountyId)
				continue
			}
			log.Printf("[Sweeper] ❌ Distribution failed for bounty %s: %v", b.BountyId, err)
			results = append(results, models.SweepEntry{
				BountyID:  b.BountyId,
				Status:    models.SweepStatusFailed,
				Error:     err.Error(),
				ExpiredAt: expiredISO,
			})
			continue
		}

		log.Printf("[Sweeper] ✅ Distributed rewards for bounty %s (tx %s)", b.BountyId, txHash)
		results = append(results, models.SweepEntry{
			BountyID:        b.BountyId,
			Status:          models.SweepStatusSuccess,
			TransactionHash: txHash,
			ExpiredAt:       expiredISO,
		})
	}

	return results, nil
}
