// services/bounty_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/big"
	"regexp"
	"strings"
	"time"

	"agent-bounty-system/models"
	"agent-bounty-system/prompts"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const (
	gatherMaxRetries = 3
	defaultExpiry    = 7 * 24 * time.Hour

	stakingScale         = 1000 // avg similarity → token units
	minParticipantsScale = 5
	expiryScaleDays      = 10
)

var deadlineRe = regexp.MustCompile(`(?i)deadline[:\s]+(\d+)\s*day`)

// SnapshotArchiver stores JSON snapshots (evaluation inputs, verification
// results) in the archive bucket. Failures there are logged, never fatal.
type SnapshotArchiver interface {
	ArchiveJSON(ctx context.Context, key string, v interface{}) (string, error)
}

// BountyParams are the on-chain parameters derived from a ranking run.
type BountyParams struct {
	StakingAmount int64
	MinOfUsers    int64
	Expiry        time.Duration
}

// BountyService orchestrates the bounty creation and evaluation workflows:
// gather -> rank -> parameterize -> persist content -> create on-chain, and
// submission -> evaluate -> register.
type BountyService struct {
	DB        *gorm.DB
	Pool      BountyPool
	Store     ContentStore
	Source    PostSource
	Ranker    *Ranker
	Completer TextCompleter
	Evaluator *Evaluator
	Cache     *BountyCache
	Archive   SnapshotArchiver

	// sleep between gather retries; swapped out in tests
	backoff func(attempt int)
}

func NewBountyService(db *gorm.DB, pool BountyPool, store ContentStore, source PostSource, ranker *Ranker, completer TextCompleter, evaluator *Evaluator, cache *BountyCache, archive SnapshotArchiver) *BountyService {
	return &BountyService{
		DB:        db,
		Pool:      pool,
		Store:     store,
		Source:    source,
		Ranker:    ranker,
		Completer: completer,
		Evaluator: evaluator,
		Cache:     cache,
		Archive:   archive,
		backoff: func(attempt int) {
			time.Sleep(time.Duration(attempt) * time.Second)
		},
	}
}

// CreateBounty runs the full creation workflow for a free-text request.
// Content is pinned before the chain write; a chain failure propagates
// without retry and without touching the already-pinned blob.
func (s *BountyService) CreateBounty(ctx context.Context, request string) (*models.BountyResult, error) {
	criteria := ExtractCriteria(request)
	log.Printf("[Bounty] Extracted %d criteria from request", len(criteria))
	if len(criteria) == 0 {
		criteria = []string{"No specific criteria provided"}
	}

	posts, err := s.gatherPosts(ctx)
	if err != nil {
		return nil, err
	}
	posts = s.dropScamPosts(ctx, posts)

	ranked, err := s.Ranker.Rank(ctx, posts, request)
	if err != nil {
		return nil, fmt.Errorf("ranking failed: %w", err)
	}

	avg := AverageSimilarity(ranked)
	params := DeriveBountyParams(avg, request)
	bountyID := NewBountyID(request)

	var authors []string
	for _, p := range ranked {
		authors = append(authors, p.AuthorFullname)
	}

	content := models.BountyContent{
		BountyID:        bountyID,
		AllPostsContent: RenderAllPosts(ranked),
		Criteria:        criteria,
	}

	// The blob must be pinned before any chain state exists. An orphaned
	// blob after a failed chain write is harmless; the store is append-only.
	pin, err := s.Store.UploadJSON(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("content upload failed, bounty not created: %w", err)
	}

	expiredAt := uint64(time.Now().Add(params.Expiry).Unix())
	stakeWei := new(big.Int).Mul(big.NewInt(params.StakingAmount), big.NewInt(1e18))

	txHash, err := s.Pool.CreateBounty(ctx, bountyID, stakeWei, uint64(params.MinOfUsers), expiredAt)
	if err != nil {
		return nil, fmt.Errorf("on-chain bounty creation failed (content blob %s left pinned): %w", pin.IpfsHash, err)
	}

	log.Printf("[Bounty] ✅ Created bounty %s (tx %s, content %s)", bountyID, txHash, pin.IpfsHash)

	if s.Cache != nil {
		if err := s.Cache.Add(ctx, bountyID); err != nil {
			log.Printf("[Bounty] Failed to cache bounty ID: %v", err)
		}
	}

	if s.DB != nil {
		record := models.BountyRecord{
			ID:             bountyID,
			ContentHash:    pin.IpfsHash,
			ContentURL:     pin.URL,
			TxHash:         txHash,
			StakingAmount:  params.StakingAmount,
			MinOfUsers:     params.MinOfUsers,
			ExpiresAt:      time.Unix(int64(expiredAt), 0).UTC(),
			PostCount:      len(ranked),
			AvgSimilarity:  avg,
			RelatedAuthors: strings.Join(authors, ","),
		}
		if err := s.DB.Create(&record).Error; err != nil {
			log.Printf("[Bounty] Failed to persist bounty record: %v", err)
		}
	}

	result := &models.BountyResult{
		BountyID:        bountyID,
		TransactionHash: txHash,
		StakingAmount:   params.StakingAmount,
		MinimumOfUser:   params.MinOfUsers,
		ExpireTime:      fmt.Sprintf("%d days", int(math.Round(params.Expiry.Hours()/24))),
		PostCount:       len(ranked),
		AvgSimilarity:   avg,
		RelatedAuthors:  authors,
		Criteria:        criteria,
		ContentHash:     pin.IpfsHash,
		ContentURL:      pin.URL,
	}

	if top := topPosts(ranked, 3); len(top) > 0 && s.Completer != nil {
		var contextTexts []string
		for _, p := range top {
			contextTexts = append(contextTexts, p.Text)
		}
		analysis, err := s.Completer.Complete(ctx, prompts.AnalyzePost(request, strings.Join(contextTexts, "\n\n")))
		if err != nil {
			log.Printf("[Bounty] Post analysis failed: %v", err)
		} else {
			result.Analysis = strings.TrimSpace(analysis)
		}
		result.RelevantPosts = top
	}

	s.archive(ctx, fmt.Sprintf("bounties/%s/verification.json", bountyID), map[string]interface{}{
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"bountyId":    bountyID,
		"contentHash": pin.IpfsHash,
		"txHash":      txHash,
		"params":      result,
	})

	return result, nil
}

// EvaluationOutcome bundles everything the evaluation sub-flow produced.
type EvaluationOutcome struct {
	Success          bool                     `json:"success"`
	Message          string                   `json:"message,omitempty"`
	BountyID         string                   `json:"bountyId"`
	BountyExists     bool                     `json:"bountyExists"`
	Submission       *models.Submission       `json:"submissionData,omitempty"`
	EvaluationResult *models.EvaluationResult `json:"evaluationResult,omitempty"`
}

// EvaluateSubmissionHash fetches a pinned submission blob and scores it
// against the bounty's pinned criteria and corpus.
func (s *BountyService) EvaluateSubmissionHash(ctx context.Context, bountyID, submissionHash string) (*EvaluationOutcome, error) {
	outcome := &EvaluationOutcome{BountyID: bountyID}

	if s.Cache != nil {
		exists, err := s.Cache.Exists(ctx, bountyID)
		if err != nil {
			log.Printf("[Bounty] Cache lookup failed for %s: %v", bountyID, err)
		}
		outcome.BountyExists = exists
		if !exists {
			// The bounty may have been created elsewhere; chain is ground truth.
			log.Printf("[Bounty] Bounty %s not in local records, continuing", bountyID)
		}
	}

	contentHash := bountyID
	if s.DB != nil {
		var record models.BountyRecord
		if err := s.DB.First(&record, "id = ?", bountyID).Error; err == nil {
			contentHash = record.ContentHash
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[Bounty] DB lookup failed for %s: %v", bountyID, err)
		}
	}

	var content models.BountyContent
	if err := s.Store.GetJSON(ctx, contentHash, &content); err != nil {
		return nil, fmt.Errorf("failed to fetch bounty content: %w", err)
	}

	var sub models.Submission
	if err := s.Store.GetJSON(ctx, submissionHash, &sub); err != nil {
		return nil, fmt.Errorf("failed to fetch submission: %w", err)
	}
	outcome.Submission = &sub

	if sub.BountyID != "" && sub.BountyID != bountyID {
		log.Printf("[Bounty] Submission targets bounty %s, not requested %s — evaluating anyway", sub.BountyID, bountyID)
	}
	sub.BountyID = bountyID
	sub.Ref = submissionHash

	if content.AllPostsContent == "" || sub.Submission == "" {
		outcome.Message = "Missing required data for evaluation"
		return outcome, nil
	}

	s.archive(ctx, fmt.Sprintf("bounties/%s/evaluation_inputs.json", bountyID), map[string]interface{}{
		"allPostsContent": content.AllPostsContent,
		"submission":      sub.Submission,
		"criteria":        content.Criteria,
	})

	result, err := s.Evaluator.Evaluate(ctx, content.AllPostsContent, sub, content.Criteria)
	if err != nil {
		return nil, err
	}

	outcome.Success = true
	outcome.EvaluationResult = result

	s.archive(ctx, fmt.Sprintf("bounties/%s/evaluation_result.json", bountyID), outcome)
	return outcome, nil
}

func (s *BountyService) gatherPosts(ctx context.Context) ([]models.Post, error) {
	var lastErr error
	for attempt := 1; attempt <= gatherMaxRetries; attempt++ {
		posts, err := s.Source.FetchPosts(ctx)
		if err == nil && len(posts) > 0 {
			log.Printf("[Bounty] Retrieved %d posts on attempt %d", len(posts), attempt)
			return posts, nil
		}
		if err == nil {
			err = fmt.Errorf("no valid data found")
		}
		lastErr = err
		log.Printf("[Bounty] Gather attempt %d failed: %v", attempt, err)
		if attempt < gatherMaxRetries {
			s.backoff(attempt)
		}
	}
	return nil, fmt.Errorf("gathering source posts failed after %d attempts: %w", gatherMaxRetries, lastErr)
}

// dropScamPosts filters out posts the classifier marks SCAM. Classifier
// errors fail open: the post is kept.
func (s *BountyService) dropScamPosts(ctx context.Context, posts []models.Post) []models.Post {
	if s.Completer == nil {
		return posts
	}
	kept := make([]models.Post, 0, len(posts))
	dropped := 0
	for _, p := range posts {
		verdict, err := s.Completer.Complete(ctx, prompts.ClassifyPost(p.Text))
		if err != nil {
			log.Printf("[Bounty] Classification failed for post by %s, keeping: %v", p.AuthorFullname, err)
			kept = append(kept, p)
			continue
		}
		if strings.Contains(strings.ToUpper(verdict), "SCAM") {
			dropped++
			continue
		}
		kept = append(kept, p)
	}
	if dropped > 0 {
		log.Printf("[Bounty] Dropped %d posts classified as scam", dropped)
	}
	return kept
}

func (s *BountyService) archive(ctx context.Context, key string, v interface{}) {
	if s.Archive == nil {
		return
	}
	if _, err := s.Archive.ArchiveJSON(ctx, key, v); err != nil {
		log.Printf("[Bounty] Failed to archive %s: %v", key, err)
	}
}

// ExtractCriteria pulls the criteria list from the text after the first
// colon, one per non-empty line.
func ExtractCriteria(text string) []string {
	idx := strings.Index(text, ":")
	if idx < 0 {
		return nil
	}
	var criteria []string
	for _, line := range strings.Split(text[idx+1:], "\n") {
		if line = strings.TrimSpace(line); line != "" {
			criteria = append(criteria, line)
		}
	}
	return criteria
}

// ParseDeadlineDays extracts "deadline: N days" from free text, returning
// (0, false) when no phrase is present.
func ParseDeadlineDays(text string) (int, bool) {
	m := deadlineRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	var days int
	fmt.Sscanf(m[1], "%d", &days)
	if days <= 0 {
		return 0, false
	}
	return days, true
}

// DeriveBountyParams computes staking amount, minimum participants and expiry
// from the average similarity score. An explicit deadline phrase in the
// request overrides the derived expiry; a non-positive derived expiry falls
// back to 7 days.
func DeriveBountyParams(avgSimilarity float64, request string) BountyParams {
	params := BountyParams{
		StakingAmount: int64(math.Round(avgSimilarity * stakingScale)),
		MinOfUsers:    int64(math.Max(2, math.Round(avgSimilarity*minParticipantsScale))),
		Expiry:        time.Duration(math.Round(avgSimilarity*expiryScaleDays*24)) * time.Hour,
	}
	if days, ok := ParseDeadlineDays(request); ok {
		params.Expiry = time.Duration(days) * 24 * time.Hour
	}
	if params.Expiry <= 0 {
		params.Expiry = defaultExpiry
	}
	if params.StakingAmount < 1 {
		params.StakingAmount = 1
	}
	return params
}

// NewBountyID mints a unique, human-readable bounty ID from the request topic.
func NewBountyID(request string) string {
	topic := request
	if idx := strings.Index(topic, ":"); idx > 0 {
		topic = topic[:idx]
	}
	if len(topic) > 40 {
		topic = topic[:40]
	}
	topicSlug := slug.Make(topic)
	if topicSlug == "" {
		topicSlug = "bounty"
	}
	return fmt.Sprintf("bounty_%s_%d", topicSlug, time.Now().UnixNano()/int64(time.Millisecond))
}

// RenderAllPosts flattens ranked posts into one corpus blob for pinning.
func RenderAllPosts(posts []models.RankedPost) string {
	var parts []string
	for _, p := range posts {
		parts = append(parts, fmt.Sprintf("Author: %s\n%s", p.AuthorFullname, strings.Join(p.OriginalTexts, "\n")))
	}
	return strings.Join(parts, "\n\n")
}

func topPosts(posts []models.RankedPost, n int) []models.RankedPost {
	if len(posts) < n {
		n = len(posts)
	}
	return posts[:n]
}
