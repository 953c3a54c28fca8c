// Package chain wraps the deployed BountyPool contract. All writes go through
// the single signing key held by the client; a mutex serializes them so two
// concurrent transactions cannot race the account nonce.
package chain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// revert reason the contract emits when distributeRewards is called twice.
const alreadyDistributedReason = "Rewards already distributed"

// ErrAlreadyDistributed reports that a bounty's rewards were distributed
// before this call. Callers must treat it as a benign skip, not a failure.
var ErrAlreadyDistributed = errors.New("rewards already distributed")

// IsAlreadyDistributed reports whether err is the benign already-distributed
// condition, either our sentinel or the contract's revert reason surfaced
// through the RPC error string.
func IsAlreadyDistributed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAlreadyDistributed) {
		return true
	}
	// Compatibility shim: some RPC providers only expose the revert reason
	// as message text.
	return strings.Contains(err.Error(), alreadyDistributedReason)
}

const bountyPoolABI = `[
  {"inputs":[{"internalType":"string","name":"bountyId","type":"string"},{"internalType":"uint64","name":"minOfParticipants","type":"uint64"},{"internalType":"uint64","name":"expiredAt","type":"uint64"}],"name":"createBounty","outputs":[],"stateMutability":"payable","type":"function"},
  {"inputs":[{"internalType":"address","name":"participant","type":"address"},{"internalType":"uint64","name":"point","type":"uint64"},{"internalType":"string","name":"taskId","type":"string"}],"name":"participateInBounty","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"internalType":"string","name":"id","type":"string"}],"name":"distributeRewards","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[],"name":"getAllBounties","outputs":[{"components":[{"internalType":"string","name":"bountyId","type":"string"},{"internalType":"address","name":"creator","type":"address"},{"internalType":"uint256","name":"rewardAmount","type":"uint256"},{"internalType":"uint64","name":"minOfParticipants","type":"uint64"},{"internalType":"uint64","name":"expiredAt","type":"uint64"},{"internalType":"bool","name":"distributed","type":"bool"},{"internalType":"uint256","name":"participantCount","type":"uint256"}],"internalType":"struct BountyPool.BountyInfo[]","name":"","type":"tuple[]"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"string","name":"bountyId","type":"string"}],"name":"getBountyById","outputs":[{"components":[{"internalType":"string","name":"bountyId","type":"string"},{"internalType":"address","name":"creator","type":"address"},{"internalType":"uint256","name":"rewardAmount","type":"uint256"},{"internalType":"uint64","name":"minOfParticipants","type":"uint64"},{"internalType":"uint64","name":"expiredAt","type":"uint64"},{"internalType":"bool","name":"distributed","type":"bool"},{"internalType":"uint256","name":"participantCount","type":"uint256"}],"internalType":"struct BountyPool.BountyInfo","name":"","type":"tuple"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"address","name":"creator","type":"address"}],"name":"getBountiesByCreator","outputs":[{"components":[{"internalType":"string","name":"bountyId","type":"string"},{"internalType":"address","name":"creator","type":"address"},{"internalType":"uint256","name":"rewardAmount","type":"uint256"},{"internalType":"uint64","name":"minOfParticipants","type":"uint64"},{"internalType":"uint64","name":"expiredAt","type":"uint64"},{"internalType":"bool","name":"distributed","type":"bool"},{"internalType":"uint256","name":"participantCount","type":"uint256"}],"internalType":"struct BountyPool.BountyInfo[]","name":"","type":"tuple[]"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"string","name":"bountyId","type":"string"}],"name":"getBountyParticipants","outputs":[{"internalType":"address[]","name":"","type":"address[]"},{"internalType":"uint64[]","name":"","type":"uint64[]"}],"stateMutability":"view","type":"function"}
]`

// BountyInfo mirrors the contract's BountyInfo tuple.
type BountyInfo struct {
	BountyId          string
	Creator           common.Address
	RewardAmount      *big.Int
	MinOfParticipants uint64
	ExpiredAt         uint64
	Distributed       bool
	ParticipantCount  *big.Int
}

// Participant is one entry of getBountyParticipants.
type Participant struct {
	Address string `json:"address"`
	Points  uint64 `json:"points"`
}

// Client talks to one BountyPool deployment.
type Client struct {
	eth      *ethclient.Client
	contract *bind.BoundContract
	auth     *bind.TransactOpts
	address  common.Address

	writeMu sync.Mutex // one in-flight transaction per signer
}

// NewClient dials the RPC endpoint and binds the contract with the injected
// signing credential.
func NewClient(cfg Config) (*Client, error) {
	eth, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial chain RPC: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(bountyPoolABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse BountyPool ABI: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid signing key: %w", err)
	}

	auth, err := bind.NewKeyedTransactorWithChainID(key, cfg.ChainID)
	if err != nil {
		return nil, fmt.Errorf("failed to build transactor: %w", err)
	}

	addr := common.HexToAddress(cfg.ContractAddress)
	contract := bind.NewBoundContract(addr, parsed, eth, eth, eth)

	log.Printf("✅ BountyPool client bound to %s (signer %s)", addr.Hex(), auth.From.Hex())

	return &Client{
		eth:      eth,
		contract: contract,
		auth:     auth,
		address:  addr,
	}, nil
}

// SignerAddress returns the address of the injected signing key.
func (c *Client) SignerAddress() string {
	return c.auth.From.Hex()
}

func (c *Client) transact(ctx context.Context, value *big.Int, method string, args ...interface{}) (*types.Receipt, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	opts := *c.auth
	opts.Context = ctx
	opts.Value = value

	tx, err := c.contract.Transact(&opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s transaction failed: %w", method, err)
	}

	log.Printf("[Chain] %s submitted, tx %s — waiting for confirmation", method, tx.Hash().Hex())

	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return nil, fmt.Errorf("waiting for %s confirmation: %w", method, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%s transaction %s reverted", method, tx.Hash().Hex())
	}

	log.Printf("[Chain] ✅ %s confirmed in block %d (gas used %d)", method, receipt.BlockNumber.Uint64(), receipt.GasUsed)
	return receipt, nil
}

// CreateBounty stakes amount (in wei) into a new bounty. The bounty ID must be
// unique within the contract's storage.
func (c *Client) CreateBounty(ctx context.Context, bountyID string, stakeWei *big.Int, minOfParticipants uint64, expiredAt uint64) (string, error) {
	receipt, err := c.transact(ctx, stakeWei, "createBounty", bountyID, minOfParticipants, expiredAt)
	if err != nil {
		return "", err
	}
	return receipt.TxHash.Hex(), nil
}

// ParticipateInBounty registers a participant with their score against a bounty.
func (c *Client) ParticipateInBounty(ctx context.Context, participant string, point uint64, bountyID string) (string, error) {
	if !common.IsHexAddress(participant) {
		return "", fmt.Errorf("invalid participant address %q", participant)
	}
	receipt, err := c.transact(ctx, nil, "participateInBounty", common.HexToAddress(participant), point, bountyID)
	if err != nil {
		return "", err
	}
	return receipt.TxHash.Hex(), nil
}

// DistributeRewards triggers the one-time payout for a bounty. It reads the
// distributed flag first and returns ErrAlreadyDistributed when the transition
// has already happened, so callers never pay gas for a guaranteed revert.
func (c *Client) DistributeRewards(ctx context.Context, bountyID string) (string, error) {
	info, err := c.BountyByID(ctx, bountyID)
	if err != nil {
		return "", fmt.Errorf("reading bounty %s before distribution: %w", bountyID, err)
	}
	if info.Distributed {
		return "", ErrAlreadyDistributed
	}

	receipt, err := c.transact(ctx, nil, "distributeRewards", bountyID)
	if err != nil {
		if IsAlreadyDistributed(err) {
			// Lost the race against another distributor; same benign outcome.
			return "", ErrAlreadyDistributed
		}
		return "", err
	}
	return receipt.TxHash.Hex(), nil
}

// AllBounties returns every bounty known to the contract.
func (c *Client) AllBounties(ctx context.Context) ([]BountyInfo, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getAllBounties"); err != nil {
		return nil, fmt.Errorf("getAllBounties call failed: %w", err)
	}
	bounties := *abi.ConvertType(out[0], new([]BountyInfo)).(*[]BountyInfo)
	return bounties, nil
}

// BountyByID returns a single bounty's on-chain state.
func (c *Client) BountyByID(ctx context.Context, bountyID string) (BountyInfo, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getBountyById", bountyID); err != nil {
		return BountyInfo{}, fmt.Errorf("getBountyById call failed: %w", err)
	}
	info := *abi.ConvertType(out[0], new(BountyInfo)).(*BountyInfo)
	return info, nil
}

// BountiesByCreator returns the bounties created by one address.
func (c *Client) BountiesByCreator(ctx context.Context, creator string) ([]BountyInfo, error) {
	if !common.IsHexAddress(creator) {
		return nil, fmt.Errorf("invalid creator address %q", creator)
	}
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getBountiesByCreator", common.HexToAddress(creator)); err != nil {
		return nil, fmt.Errorf("getBountiesByCreator call failed: %w", err)
	}
	bounties := *abi.ConvertType(out[0], new([]BountyInfo)).(*[]BountyInfo)
	return bounties, nil
}

// BountyParticipants returns the participants registered against a bounty,
// zipped from the contract's parallel address/point arrays.
func (c *Client) BountyParticipants(ctx context.Context, bountyID string) ([]Participant, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getBountyParticipants", bountyID); err != nil {
		return nil, fmt.Errorf("getBountyParticipants call failed: %w", err)
	}
	addresses := *abi.ConvertType(out[0], new([]common.Address)).(*[]common.Address)
	points := *abi.ConvertType(out[1], new([]uint64)).(*[]uint64)

	participants := make([]Participant, 0, len(addresses))
	for i, addr := range addresses {
		p := Participant{Address: addr.Hex()}
		if i < len(points) {
			p.Points = points[i]
		}
		participants = append(participants, p)
	}
	return participants, nil
}
