package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"agent-bounty-system/chain"
	"agent-bounty-system/models"
)

func TestSweepProcessesOnlyExpiredUndistributed(t *testing.T) {
	now := time.Now().Unix()
	pool := &fakePool{bounties: []chain.BountyInfo{
		{BountyId: "expired", ExpiredAt: uint64(now - 3600)},
		{BountyId: "active", ExpiredAt: uint64(now + 3600)},
		{BountyId: "done", ExpiredAt: uint64(now - 3600), Distributed: true},
	}}

	entries, err := NewSweeper(pool).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if len(pool.distributeCalls) != 1 || pool.distributeCalls[0] != "expired" {
		t.Fatalf("expected one distribution for 'expired', got %v", pool.distributeCalls)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	e := entries[0]
	if e.BountyID != "expired" || e.Status != models.SweepStatusSuccess {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.TransactionHash == "" {
		t.Error("success entry should carry the transaction hash")
	}
	if _, err := time.Parse(time.RFC3339, e.ExpiredAt); err != nil {
		t.Errorf("expiredAt not RFC3339: %q", e.ExpiredAt)
	}
}

func TestSweepAlreadyDistributedSkippedSilently(t *testing.T) {
	now := time.Now().Unix()
	pool := &fakePool{
		bounties: []chain.BountyInfo{
			{BountyId: "raced", ExpiredAt: uint64(now - 60)},
		},
		distributeErr: map[string]error{
			"raced": chain.ErrAlreadyDistributed,
		},
	}

	entries, err := NewSweeper(pool).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("already-distributed bounty must produce no entry, got %+v", entries)
	}
}

func TestSweepFailureIsolatedPerBounty(t *testing.T) {
	now := time.Now().Unix()
	pool := &fakePool{
		bounties: []chain.BountyInfo{
			{BountyId: "bad", ExpiredAt: uint64(now - 60)},
			{BountyId: "good", ExpiredAt: uint64(now - 60)},
		},
		distributeErr: map[string]error{
			"bad": errors.New("execution reverted: no participants"),
		},
	}

	entries, err := NewSweeper(pool).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(pool.distributeCalls) != 2 {
		t.Fatalf("a failed bounty must not stop the sweep, got calls %v", pool.distributeCalls)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Status != models.SweepStatusFailed || entries[0].Error == "" {
		t.Errorf("first entry should be a failure with the error recorded, got %+v", entries[0])
	}
	if entries[1].Status != models.SweepStatusSuccess {
		t.Errorf("second entry should succeed, got %+v", entries[1])
	}
}

func TestSweepListFailureAborts(t *testing.T) {
	pool := &fakePool{allErr: errors.New("rpc timeout")}
	if _, err := NewSweeper(pool).Sweep(context.Background()); err == nil {
		t.Fatal("expected error when the bounty listing fails")
	}
}
