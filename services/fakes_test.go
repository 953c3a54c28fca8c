package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"agent-bounty-system/chain"
	"agent-bounty-system/models"
)

// fakePool records calls and serves canned bounty data.
type fakePool struct {
	mu sync.Mutex

	bounties []chain.BountyInfo

	createCalls      []createCall
	participateCalls []participateCall
	distributeCalls  []string

	createErr      error
	participateErr error
	distributeErr  map[string]error
	allErr         error
}

type createCall struct {
	BountyID          string
	StakeWei          *big.Int
	MinOfParticipants uint64
	ExpiredAt         uint64
}

type participateCall struct {
	Participant string
	Point       uint64
	BountyID    string
}

func (f *fakePool) CreateBounty(ctx context.Context, bountyID string, stakeWei *big.Int, minOfParticipants uint64, expiredAt uint64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.createCalls = append(f.createCalls, createCall{bountyID, stakeWei, minOfParticipants, expiredAt})
	return fmt.Sprintf("0xcreate%d", len(f.createCalls)), nil
}

func (f *fakePool) ParticipateInBounty(ctx context.Context, participant string, point uint64, bountyID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.participateErr != nil {
		return "", f.participateErr
	}
	f.participateCalls = append(f.participateCalls, participateCall{participant, point, bountyID})
	return fmt.Sprintf("0xjoin%d", len(f.participateCalls)), nil
}

func (f *fakePool) DistributeRewards(ctx context.Context, bountyID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.distributeCalls = append(f.distributeCalls, bountyID)
	if err, ok := f.distributeErr[bountyID]; ok {
		return "", err
	}
	return "0xdist_" + bountyID, nil
}

func (f *fakePool) AllBounties(ctx context.Context) ([]chain.BountyInfo, error) {
	if f.allErr != nil {
		return nil, f.allErr
	}
	return f.bounties, nil
}

func (f *fakePool) BountyByID(ctx context.Context, bountyID string) (chain.BountyInfo, error) {
	for _, b := range f.bounties {
		if b.BountyId == bountyID {
			return b, nil
		}
	}
	return chain.BountyInfo{}, fmt.Errorf("bounty %s not found", bountyID)
}

func (f *fakePool) BountiesByCreator(ctx context.Context, creator string) ([]chain.BountyInfo, error) {
	var out []chain.BountyInfo
	for _, b := range f.bounties {
		if b.Creator.Hex() == creator {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakePool) BountyParticipants(ctx context.Context, bountyID string) ([]chain.Participant, error) {
	return nil, nil
}

// fakeCompleter returns canned responses in order, then repeats the last one.
type fakeCompleter struct {
	responses []string
	err       error
	calls     []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls = append(f.calls, prompt)
	if f.err != nil {
		return "", f.err
	}
	idx := len(f.calls) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

// fakeEmbedder returns a fixed vector per input text.
type fakeEmbedder struct {
	vectors  map[string][]float64
	fallback []float64
	err      error
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
		} else if f.fallback != nil {
			out[i] = f.fallback
		} else {
			out[i] = []float64{1, 0, 0}
		}
	}
	return out, nil
}

// fakeStore is an in-memory content store keyed by fake hashes.
type fakeStore struct {
	blobs     map[string][]byte
	uploadErr error
	nextHash  int
	uploads   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{blobs: make(map[string][]byte)}
}

func (f *fakeStore) put(hash string, v interface{}) {
	data, _ := json.Marshal(v)
	f.blobs[hash] = data
}

func (f *fakeStore) UploadJSON(ctx context.Context, v interface{}) (PinResult, error) {
	if f.uploadErr != nil {
		return PinResult{}, f.uploadErr
	}
	f.nextHash++
	hash := fmt.Sprintf("Qm%04d", f.nextHash)
	f.put(hash, v)
	f.uploads = append(f.uploads, hash)
	return PinResult{IpfsHash: hash, URL: "https://gw.test/ipfs/" + hash}, nil
}

func (f *fakeStore) GetJSON(ctx context.Context, hash string, out interface{}) error {
	data, ok := f.blobs[hash]
	if !ok {
		return fmt.Errorf("blob %s not found", hash)
	}
	return json.Unmarshal(data, out)
}

// fakeSource serves posts, failing the first failCount calls.
type fakeSource struct {
	posts     []models.Post
	failCount int
	calls     int
}

func (f *fakeSource) FetchPosts(ctx context.Context) ([]models.Post, error) {
	f.calls++
	if f.calls <= f.failCount {
		return nil, fmt.Errorf("source unavailable")
	}
	return f.posts, nil
}

// fakeArchive records snapshot keys.
type fakeArchive struct {
	keys []string
}

func (f *fakeArchive) ArchiveJSON(ctx context.Context, key string, v interface{}) (string, error) {
	f.keys = append(f.keys, key)
	return "https://archive.test/" + key, nil
}
