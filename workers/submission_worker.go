package workers

import (
	"context"
	"log"
	"time"

	"agent-bounty-system/models"
	"agent-bounty-system/services"

	"gorm.io/gorm"
)

// SubmissionWorker scans the content store for newly pinned submission blobs
// and pushes them through the evaluation workflow. Already-evaluated blobs
// are skipped via the evaluation audit table, so restarts never double-score.
type SubmissionWorker struct {
	DB      *gorm.DB
	Store   *services.PinataClient
	Bounty  *services.BountyService
	scanned map[string]bool // CIDs checked this process lifetime, evaluated or not
}

func NewSubmissionWorker(db *gorm.DB, store *services.PinataClient, bounty *services.BountyService) *SubmissionWorker {
	return &SubmissionWorker{
		DB:      db,
		Store:   store,
		Bounty:  bounty,
		scanned: make(map[string]bool),
	}
}

// PollSubmissions runs until ctx is cancelled, scanning every pollInterval.
func (w *SubmissionWorker) PollSubmissions(ctx context.Context, pollInterval time.Duration) {
	log.Println("Starting submission polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Submission polling stopped.")
			return
		case <-ticker.C:
			if err := w.scanOnce(ctx); err != nil {
				log.Printf("❌ Submission scan failed: %v", err)
			}
		}
	}
}

func (w *SubmissionWorker) scanOnce(ctx context.Context) error {
	cids, err := w.Store.ListFileCIDs(ctx)
	if err != nil {
		return err
	}

	evaluated := 0
	for _, cid := range cids {
		if w.scanned[cid] {
			continue
		}
		w.scanned[cid] = true

		var sub models.Submission
		if err := w.Store.GetJSON(ctx, cid, &sub); err != nil {
			continue // not reachable or not JSON we care about
		}
		if sub.BountyID == "" || sub.Submission == "" {
			continue // some other blob kind (posts, bounty content, snapshots)
		}

		var count int64
		if err := w.DB.Model(&models.EvaluationRecord{}).
			Where("submission_ref = ?", cid).
			Count(&count).Error; err != nil {
			log.Printf("❌ Dedup check failed for %s: %v", cid, err)
			continue
		}
		if count > 0 {
			continue
		}

		log.Printf("📥 New submission %s for bounty %s by %s", cid, sub.BountyID, sub.Author)
		outcome, err := w.Bounty.EvaluateSubmissionHash(ctx, sub.BountyID, cid)
		if err != nil {
			log.Printf("❌ Failed to evaluate submission %s: %v", cid, err)
			// retry on a later scan
			delete(w.scanned, cid)
			continue
		}
		evaluated++
		if outcome.EvaluationResult != nil {
			log.Printf("✅ Evaluated %s: score %.1f, qualifies=%v", cid, outcome.EvaluationResult.OverallScore, outcome.EvaluationResult.QualifiesForBounty)
		}
	}

	if evaluated > 0 {
		log.Printf("✅ Submission scan evaluated %d new submission(s)", evaluated)
	}
	return nil
}
