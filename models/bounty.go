package models

import "time"

const (
	SweepStatusSuccess = "success"
	SweepStatusFailed  = "failed"
)

// BountyRecord is the local (non-authoritative) record of a bounty we created.
// Chain state remains ground truth; this exists so the API can answer
// "what did this service create" without a chain round trip.
type BountyRecord struct {
	ID             string    `gorm:"primaryKey" json:"id"` // bounty ID as written on-chain
	ContentHash    string    `gorm:"index" json:"content_hash"`
	ContentURL     string    `json:"content_url"`
	TxHash         string    `json:"tx_hash"`
	StakingAmount  int64     `json:"staking_amount"`
	MinOfUsers     int64     `json:"min_of_users"`
	ExpiresAt      time.Time `json:"expires_at"`
	PostCount      int       `json:"post_count"`
	AvgSimilarity  float64   `json:"avg_similarity"`
	RelatedAuthors string    `json:"related_authors"` // comma-separated
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BountyResult is the creation-workflow response payload.
type BountyResult struct {
	BountyID        string       `json:"bountyId"`
	TransactionHash string       `json:"transactionHash,omitempty"`
	StakingAmount   int64        `json:"stakingAmount"`
	MinimumOfUser   int64        `json:"minimumOfUser"`
	ExpireTime      string       `json:"expireTime"` // human readable, e.g. "7 days"
	PostCount       int          `json:"postCount"`
	AvgSimilarity   float64      `json:"avgSimilarity"`
	RelatedAuthors  []string     `json:"relatedAuthors"`
	Criteria        []string     `json:"criteria"`
	ContentHash     string       `json:"contentHash,omitempty"`
	ContentURL      string       `json:"contentUrl,omitempty"`
	Analysis        string       `json:"analysis,omitempty"`
	RelevantPosts   []RankedPost `json:"relevantPosts,omitempty"`
}

// BountyContent is the blob pinned to the content store for a bounty.
type BountyContent struct {
	BountyID        string   `json:"bountyId"`
	AllPostsContent string   `json:"allPostsContent"`
	Criteria        []string `json:"criteria"`
}

// SweepEntry is one bounty's outcome in a sweep run. Bounties skipped as
// already distributed never appear here.
type SweepEntry struct {
	BountyID        string `json:"bountyId"`
	Status          string `json:"status"`
	TransactionHash string `json:"transactionHash,omitempty"`
	Error           string `json:"error,omitempty"`
	ExpiredAt       string `json:"expiredAt"` // ISO-8601
}
