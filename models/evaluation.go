package models

import "time"

// Submission is the blob a participant pins to the content store.
type Submission struct {
	Author        string `json:"author"`
	BountyID      string `json:"bountyId"`
	Submission    string `json:"submission"`
	WalletAddress string `json:"walletAddress"`
	UploadTime    string `json:"uploadTime,omitempty"`

	// content hash the blob was fetched from, set by the caller
	Ref string `json:"-"`
}

// ParticipationStatus records whether (and why not) the participant was
// registered on-chain after evaluation.
type ParticipationStatus struct {
	Success       bool    `json:"success"`
	Message       string  `json:"message"`
	WalletAddress string  `json:"walletAddress,omitempty"`
	Score         float64 `json:"score"`
	BountyID      string  `json:"bountyId"`
}

// EvaluationResult is the verdict for one submission. A fresh evaluation
// always produces a new result; results are never mutated afterwards.
type EvaluationResult struct {
	OverallScore        float64              `json:"overallScore"`
	QualifiesForBounty  bool                 `json:"qualifiesForBounty"`
	Summary             string               `json:"summary"`
	DetailedFeedback    string               `json:"detailedFeedback"`
	ParticipationStatus *ParticipationStatus `json:"participationStatus,omitempty"`
}

// EvaluationRecord persists an evaluation outcome for auditing.
type EvaluationRecord struct {
	ID            string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	BountyID      string    `gorm:"index;not null" json:"bounty_id"`
	SubmissionRef string    `json:"submission_ref"` // content hash of the submission blob
	Author        string    `json:"author"`
	WalletAddress string    `json:"wallet_address"`
	OverallScore  float64   `json:"overall_score"`
	Qualified     bool      `json:"qualified"`
	Registered    bool      `json:"registered"` // participant added on-chain
	Summary       string    `json:"summary"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}
