// services/evaluator.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/big"
	"regexp"
	"strings"

	"agent-bounty-system/chain"
	"agent-bounty-system/models"
	"agent-bounty-system/prompts"

	"gorm.io/gorm"
)

// QualificationThreshold is enforced by this service independently of the
// model's own qualifiesForBounty claim.
const QualificationThreshold = 7.0

// BountyPool is the deployed contract surface the workflow depends on.
// *chain.Client implements it; tests substitute fakes.
type BountyPool interface {
	CreateBounty(ctx context.Context, bountyID string, stakeWei *big.Int, minOfParticipants uint64, expiredAt uint64) (string, error)
	ParticipateInBounty(ctx context.Context, participant string, point uint64, bountyID string) (string, error)
	DistributeRewards(ctx context.Context, bountyID string) (string, error)
	AllBounties(ctx context.Context) ([]chain.BountyInfo, error)
	BountyByID(ctx context.Context, bountyID string) (chain.BountyInfo, error)
	BountiesByCreator(ctx context.Context, creator string) ([]chain.BountyInfo, error)
	BountyParticipants(ctx context.Context, bountyID string) ([]chain.Participant, error)
}

var fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// Evaluator scores submissions against bounty criteria via the text model and
// registers qualifying participants on-chain.
type Evaluator struct {
	Completer TextCompleter
	Pool      BountyPool
	DB        *gorm.DB // optional audit trail
}

func NewEvaluator(completer TextCompleter, pool BountyPool, db *gorm.DB) *Evaluator {
	return &Evaluator{Completer: completer, Pool: pool, DB: db}
}

// Evaluate runs one evaluation. The returned result is always usable: an
// unparseable model response degrades to a zero-score, non-qualifying result
// carrying the raw output, and an on-chain registration failure is recorded in
// the participation status instead of being raised.
func (e *Evaluator) Evaluate(ctx context.Context, allPostsContent string, sub models.Submission, criteria []string) (*models.EvaluationResult, error) {
	criteriaJSON, err := json.Marshal(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal criteria: %w", err)
	}

	raw, err := e.Completer.Complete(ctx, prompts.EvaluateSubmission(allPostsContent, sub.Submission, string(criteriaJSON)))
	if err != nil {
		return nil, fmt.Errorf("evaluation model call failed: %w", err)
	}

	result := parseEvaluation(raw)
	log.Printf("[Evaluator] Bounty %s: score %.1f/10, model verdict qualifies=%t", sub.BountyID, result.OverallScore, result.QualifiesForBounty)

	e.registerIfQualified(ctx, result, sub)

	if e.DB != nil {
		record := models.EvaluationRecord{
			BountyID:      sub.BountyID,
			SubmissionRef: sub.Ref,
			Author:        sub.Author,
			WalletAddress: sub.WalletAddress,
			OverallScore:  result.OverallScore,
			Qualified:     result.OverallScore > QualificationThreshold,
			Registered:    result.ParticipationStatus != nil && result.ParticipationStatus.Success,
			Summary:       result.Summary,
		}
		if err := e.DB.Create(&record).Error; err != nil {
			log.Printf("[Evaluator] Failed to persist evaluation record: %v", err)
		}
	}

	return result, nil
}

// registerIfQualified attempts the single on-chain registration for a
// qualifying score. Failures land in ParticipationStatus, never as errors.
func (e *Evaluator) registerIfQualified(ctx context.Context, result *models.EvaluationResult, sub models.Submission) {
	if result.OverallScore <= QualificationThreshold {
		result.ParticipationStatus = &models.ParticipationStatus{
			Success:  false,
			Message:  "Score below qualification threshold (7.0/10)",
			Score:    result.OverallScore,
			BountyID: sub.BountyID,
		}
		return
	}

	if sub.WalletAddress == "" {
		log.Printf("[Evaluator] Bounty %s: qualifying score %.1f but no wallet address in submission", sub.BountyID, result.OverallScore)
		result.ParticipationStatus = &models.ParticipationStatus{
			Success:  false,
			Message:  "No wallet address found in submission data",
			Score:    result.OverallScore,
			BountyID: sub.BountyID,
		}
		return
	}

	point := uint64(math.Round(result.OverallScore))
	if _, err := e.Pool.ParticipateInBounty(ctx, sub.WalletAddress, point, sub.BountyID); err != nil {
		log.Printf("[Evaluator] ❌ Failed to add participant %s to bounty %s: %v", sub.WalletAddress, sub.BountyID, err)
		result.ParticipationStatus = &models.ParticipationStatus{
			Success:       false,
			Message:       fmt.Sprintf("Error adding participant to bounty: %v", err),
			WalletAddress: sub.WalletAddress,
			Score:         result.OverallScore,
			BountyID:      sub.BountyID,
		}
		return
	}

	log.Printf("[Evaluator] ✅ Added participant %s to bounty %s with score %.1f", sub.WalletAddress, sub.BountyID, result.OverallScore)
	result.ParticipationStatus = &models.ParticipationStatus{
		Success:       true,
		Message:       "Participant added to bounty successfully",
		WalletAddress: sub.WalletAddress,
		Score:         result.OverallScore,
		BountyID:      sub.BountyID,
	}
}

// parseEvaluation extracts the verdict JSON from the model response: first a
// fenced ```json block, then any bare object. Anything unparseable becomes a
// zero-score fallback with the raw response in the feedback field.
func parseEvaluation(raw string) *models.EvaluationResult {
	jsonText := ""
	if m := fencedJSONRe.FindStringSubmatch(raw); m != nil {
		jsonText = m[1]
	} else if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			jsonText = raw[start : end+1]
		}
	}

	if jsonText != "" {
		var result models.EvaluationResult
		if err := json.Unmarshal([]byte(jsonText), &result); err == nil {
			return &result
		}
	}

	log.Printf("[Evaluator] Could not parse evaluation response as JSON, falling back to zero score")
	return &models.EvaluationResult{
		OverallScore:       0,
		QualifiesForBounty: false,
		Summary:            "Could not parse evaluation result",
		DetailedFeedback:   raw,
	}
}
