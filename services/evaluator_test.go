package services

import (
	"context"
	"errors"
	"testing"

	"agent-bounty-system/models"
)

const fencedVerdict = "Here is my assessment.\n```json\n{\"overallScore\": 8.4, \"qualifiesForBounty\": true, \"summary\": \"strong\", \"detailedFeedback\": \"solid work\"}\n```\nDone."

func TestParseEvaluationFencedBlock(t *testing.T) {
	result := parseEvaluation(fencedVerdict)
	if result.OverallScore != 8.4 {
		t.Errorf("score: got %v, want 8.4", result.OverallScore)
	}
	if !result.QualifiesForBounty {
		t.Error("expected qualifiesForBounty true")
	}
	if result.Summary != "strong" {
		t.Errorf("summary: got %q", result.Summary)
	}
}

func TestParseEvaluationBareObject(t *testing.T) {
	raw := `The verdict follows: {"overallScore": 5.5, "qualifiesForBounty": false, "summary": "weak"} end`
	result := parseEvaluation(raw)
	if result.OverallScore != 5.5 {
		t.Errorf("score: got %v, want 5.5", result.OverallScore)
	}
}

func TestParseEvaluationGarbageFallsBack(t *testing.T) {
	raw := "I cannot evaluate this submission."
	result := parseEvaluation(raw)
	if result.OverallScore != 0 || result.QualifiesForBounty {
		t.Errorf("expected zero-score fallback, got %+v", result)
	}
	if result.DetailedFeedback != raw {
		t.Error("fallback should carry the raw model output")
	}
}

func TestEvaluateModelErrorPropagates(t *testing.T) {
	e := NewEvaluator(&fakeCompleter{err: errors.New("model down")}, &fakePool{}, nil)
	_, err := e.Evaluate(context.Background(), "corpus", models.Submission{BountyID: "b1"}, []string{"c1"})
	if err == nil {
		t.Fatal("expected transport error to propagate")
	}
}

func TestEvaluateBelowThresholdNeverRegisters(t *testing.T) {
	pool := &fakePool{}
	completer := &fakeCompleter{responses: []string{"```json\n{\"overallScore\": 7.0, \"qualifiesForBounty\": true}\n```"}}
	e := NewEvaluator(completer, pool, nil)

	sub := models.Submission{BountyID: "b1", WalletAddress: "0xabc", Submission: "work"}
	result, err := e.Evaluate(context.Background(), "corpus", sub, []string{"c1"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	// 7.0 is not above the threshold, the model's own claim notwithstanding
	if len(pool.participateCalls) != 0 {
		t.Fatalf("expected no registration, got %d calls", len(pool.participateCalls))
	}
	ps := result.ParticipationStatus
	if ps == nil || ps.Success {
		t.Fatalf("expected failed participation status, got %+v", ps)
	}
	if ps.Message != "Score below qualification threshold (7.0/10)" {
		t.Errorf("unexpected message: %q", ps.Message)
	}
}

func TestEvaluateQualifyingScoreRegistersOnce(t *testing.T) {
	pool := &fakePool{}
	completer := &fakeCompleter{responses: []string{"```json\n{\"overallScore\": 8.6, \"qualifiesForBounty\": true}\n```"}}
	e := NewEvaluator(completer, pool, nil)

	sub := models.Submission{BountyID: "b2", WalletAddress: "0xdef", Submission: "work"}
	result, err := e.Evaluate(context.Background(), "corpus", sub, []string{"c1"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if len(pool.participateCalls) != 1 {
		t.Fatalf("expected exactly one registration, got %d", len(pool.participateCalls))
	}
	call := pool.participateCalls[0]
	if call.Participant != "0xdef" || call.BountyID != "b2" {
		t.Errorf("wrong registration args: %+v", call)
	}
	if call.Point != 9 { // round(8.6)
		t.Errorf("point: got %d, want 9", call.Point)
	}
	if result.ParticipationStatus == nil || !result.ParticipationStatus.Success {
		t.Errorf("expected successful participation status, got %+v", result.ParticipationStatus)
	}
}

func TestEvaluateMissingWalletSkipsRegistration(t *testing.T) {
	pool := &fakePool{}
	completer := &fakeCompleter{responses: []string{"```json\n{\"overallScore\": 9.1}\n```"}}
	e := NewEvaluator(completer, pool, nil)

	result, err := e.Evaluate(context.Background(), "corpus", models.Submission{BountyID: "b3", Submission: "work"}, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(pool.participateCalls) != 0 {
		t.Fatal("expected no registration without a wallet address")
	}
	if result.ParticipationStatus.Message != "No wallet address found in submission data" {
		t.Errorf("unexpected message: %q", result.ParticipationStatus.Message)
	}
}

func TestEvaluateChainFailureRecordedNotRaised(t *testing.T) {
	pool := &fakePool{participateErr: errors.New("insufficient gas")}
	completer := &fakeCompleter{responses: []string{"```json\n{\"overallScore\": 8.0}\n```"}}
	e := NewEvaluator(completer, pool, nil)

	sub := models.Submission{BountyID: "b4", WalletAddress: "0xaaa", Submission: "work"}
	result, err := e.Evaluate(context.Background(), "corpus", sub, nil)
	if err != nil {
		t.Fatalf("chain failure must not surface as an error, got %v", err)
	}
	ps := result.ParticipationStatus
	if ps == nil || ps.Success {
		t.Fatalf("expected failed participation status, got %+v", ps)
	}
	if ps.WalletAddress != "0xaaa" || ps.Score != 8.0 {
		t.Errorf("status should carry wallet and score, got %+v", ps)
	}
}
