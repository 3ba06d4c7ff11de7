package claimer

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"airdrop_soft/blockchain"
	"airdrop_soft/config"
	"airdrop_soft/logbook"
	"airdrop_soft/proxypool"
	"airdrop_soft/wallet"
)

// fakeChain scripts per-address behavior and records every interaction.
type fakeChain struct {
	connects []string
	queries  []common.Address
	submits  []common.Address

	claimable func(common.Address) (*big.Int, error)
	submitErr func(common.Address) error
	waitErr   func(common.Address) error
	connErr   error
}

func (f *fakeChain) Connect(_ context.Context, proxyURL string) (Session, error) {
	f.connects = append(f.connects, proxyURL)
	if f.connErr != nil {
		return nil, f.connErr
	}
	return &fakeSession{chain: f}, nil
}

type fakeSession struct {
	chain *fakeChain
	addr  common.Address
}

func (s *fakeSession) Claimable(_ context.Context, account common.Address) (*big.Int, error) {
	s.chain.queries = append(s.chain.queries, account)
	if s.chain.claimable != nil {
		return s.chain.claimable(account)
	}
	return big.NewInt(1), nil
}

func (s *fakeSession) SubmitClaim(_ context.Context, key *ecdsa.PrivateKey) (*types.Transaction, error) {
	addr := crypto.PubkeyToAddress(key.PublicKey)
	s.addr = addr
	if s.chain.submitErr != nil {
		if err := s.chain.submitErr(addr); err != nil {
			return nil, err
		}
	}
	s.chain.submits = append(s.chain.submits, addr)
	return types.NewTx(&types.LegacyTx{Nonce: uint64(len(s.chain.submits))}), nil
}

func (s *fakeSession) WaitMined(_ context.Context, tx *types.Transaction) (*blockchain.ClaimReceipt, error) {
	if s.chain.waitErr != nil {
		if err := s.chain.waitErr(s.addr); err != nil {
			return nil, err
		}
	}
	return &blockchain.ClaimReceipt{TxHash: tx.Hash()}, nil
}

func (s *fakeSession) Close() {}

// sleepRecorder collects requested sleep durations instead of sleeping.
type sleepRecorder struct {
	slept []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.slept = append(s.slept, d)
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.MaxRetries = 2
	cfg.RetryBaseDelay = 100 * time.Millisecond
	cfg.BackoffFactor = 2.0
	// Fixed-width range so pauses are deterministic without touching the rng.
	cfg.DelayBetweenAccounts = config.DelayRange{Min: time.Second, Max: time.Second}
	cfg.PostClaimWait = 23 * time.Hour
	cfg.RecheckWait = time.Hour
	return cfg
}

func testBook(t *testing.T) (*logbook.Book, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var success, failure bytes.Buffer
	now := func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return logbook.NewWithWriters(&success, &failure, now), &success, &failure
}

func testWallets(t *testing.T, n int) []wallet.Wallet {
	t.Helper()
	wallets, err := wallet.Generate(n)
	if err != nil {
		t.Fatalf("generating test wallets: %v", err)
	}
	return wallets
}

func newTestOrchestrator(t *testing.T, cfg config.Config, chain Chain) (*Orchestrator, *sleepRecorder) {
	t.Helper()
	rec := &sleepRecorder{}
	book, _, _ := testBook(t)
	orch := New(cfg, chain, book,
		WithSleep(rec.sleep),
		WithRand(rand.New(rand.NewSource(42))),
	)
	return orch, rec
}

func TestRunCycleVisitsEveryWalletOnce(t *testing.T) {
	t.Parallel()

	chain := &fakeChain{}
	orch, _ := newTestOrchestrator(t, testConfig(), chain)
	wallets := testWallets(t, 8)

	stats := orch.RunCycle(context.Background(), wallets, &proxypool.Pool{})

	if stats.Total != 8 || stats.Success != 8 {
		t.Errorf("expected 8 successes out of 8, got %+v", stats)
	}

	// The submitted set must be exactly the input set: one claim per
	// wallet, in some permutation.
	if len(chain.submits) != len(wallets) {
		t.Fatalf("expected %d submissions, got %d", len(wallets), len(chain.submits))
	}
	seen := make(map[common.Address]int)
	for _, addr := range chain.submits {
		seen[addr]++
	}
	for _, w := range wallets {
		if seen[w.Address] != 1 {
			t.Errorf("wallet %s submitted %d times, want 1", w.Address.Hex(), seen[w.Address])
		}
	}
}

func TestRunCycleShufflesOrder(t *testing.T) {
	t.Parallel()

	chain := &fakeChain{}
	orch, _ := newTestOrchestrator(t, testConfig(), chain)
	wallets := testWallets(t, 16)

	orch.RunCycle(context.Background(), wallets, &proxypool.Pool{})

	inOrder := true
	for i, w := range wallets {
		if chain.submits[i] != w.Address {
			inOrder = false
			break
		}
	}
	if inOrder {
		t.Error("expected a shuffled visit order, got the input order (16 wallets, seed 42)")
	}
}

func TestRunCycleProxyPairing(t *testing.T) {
	t.Parallel()

	chain := &fakeChain{}
	orch, _ := newTestOrchestrator(t, testConfig(), chain)
	wallets := testWallets(t, 7)
	proxies := proxypool.New([]string{"http://a:1", "http://b:2", "http://c:3"})

	orch.RunCycle(context.Background(), wallets, proxies)

	if len(chain.connects) != 7 {
		t.Fatalf("expected 7 connects, got %d", len(chain.connects))
	}
	want := []string{"http://a:1", "http://b:2", "http://c:3", "http://a:1", "http://b:2", "http://c:3", "http://a:1"}
	for i, proxy := range chain.connects {
		if proxy != want[i] {
			t.Errorf("attempt %d used proxy %q, want %q", i, proxy, want[i])
		}
	}
}

func TestRunCycleNoProxies(t *testing.T) {
	t.Parallel()

	chain := &fakeChain{}
	orch, _ := newTestOrchestrator(t, testConfig(), chain)

	orch.RunCycle(context.Background(), testWallets(t, 3), &proxypool.Pool{})

	for i, proxy := range chain.connects {
		if proxy != "" {
			t.Errorf("attempt %d used proxy %q, want none", i, proxy)
		}
	}
}

func TestRunCyclePausesBetweenWalletsExceptLast(t *testing.T) {
	t.Parallel()

	chain := &fakeChain{}
	orch, rec := newTestOrchestrator(t, testConfig(), chain)

	orch.RunCycle(context.Background(), testWallets(t, 4), &proxypool.Pool{})

	// All attempts succeed on the first try, so every recorded sleep is an
	// inter-wallet pause: one per wallet except the last.
	if len(rec.slept) != 3 {
		t.Fatalf("expected 3 pauses for 4 wallets, got %d", len(rec.slept))
	}
	for i, d := range rec.slept {
		if d != time.Second {
			t.Errorf("pause %d was %v, want 1s", i, d)
		}
	}
}

func TestAttemptClaimRetryBound(t *testing.T) {
	t.Parallel()

	attempts := 0
	chain := &fakeChain{
		submitErr: func(common.Address) error {
			attempts++
			return errors.New("rpc unreachable")
		},
	}
	cfg := testConfig()
	cfg.MaxRetries = 5
	orch, _ := newTestOrchestrator(t, cfg, chain)
	w := testWallets(t, 1)[0]

	res := orch.AttemptClaim(context.Background(), w, "", 1, 1)

	if res.Outcome != OutcomeFailure {
		t.Fatalf("expected failure, got %v", res.Outcome)
	}
	if attempts != 6 {
		t.Errorf("expected exactly MaxRetries+1 = 6 attempts, got %d", attempts)
	}
	if res.Attempts != 6 {
		t.Errorf("result reports %d attempts, want 6", res.Attempts)
	}
}

func TestAttemptClaimBackoffEscalation(t *testing.T) {
	t.Parallel()

	chain := &fakeChain{
		submitErr: func(common.Address) error { return errors.New("nonce too low") },
	}
	cfg := testConfig()
	cfg.MaxRetries = 3
	cfg.RetryBaseDelay = 100 * time.Millisecond
	cfg.BackoffFactor = 2.0
	orch, rec := newTestOrchestrator(t, cfg, chain)
	w := testWallets(t, 1)[0]

	orch.AttemptClaim(context.Background(), w, "", 1, 1)

	// Wait before retry k is base * factor^(k-1).
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}
	if len(rec.slept) != len(want) {
		t.Fatalf("expected %d backoff sleeps, got %d (%v)", len(want), len(rec.slept), rec.slept)
	}
	for i, d := range rec.slept {
		if d != want[i] {
			t.Errorf("backoff %d was %v, want %v", i+1, d, want[i])
		}
	}
}

func TestAttemptClaimConstantDelay(t *testing.T) {
	t.Parallel()

	chain := &fakeChain{
		submitErr: func(common.Address) error { return errors.New("timeout") },
	}
	cfg := testConfig()
	cfg.MaxRetries = 3
	cfg.RetryBaseDelay = time.Second
	cfg.BackoffFactor = 1.0
	orch, rec := newTestOrchestrator(t, cfg, chain)
	w := testWallets(t, 1)[0]

	orch.AttemptClaim(context.Background(), w, "", 1, 1)

	for i, d := range rec.slept {
		if d != time.Second {
			t.Errorf("delay %d was %v, want constant 1s", i+1, d)
		}
	}
}

func TestAttemptClaimSkipsWhenNothingClaimable(t *testing.T) {
	t.Parallel()

	chain := &fakeChain{
		claimable: func(common.Address) (*big.Int, error) { return big.NewInt(0), nil },
	}
	orch, _ := newTestOrchestrator(t, testConfig(), chain)
	w := testWallets(t, 1)[0]

	res := orch.AttemptClaim(context.Background(), w, "", 1, 1)

	if res.Outcome != OutcomeSkipped {
		t.Fatalf("expected skipped, got %v", res.Outcome)
	}
	if len(chain.submits) != 0 {
		t.Errorf("expected no submission for an already-claimed wallet, got %d", len(chain.submits))
	}
}

func TestAttemptClaimProceedsWhenQueryFails(t *testing.T) {
	t.Parallel()

	chain := &fakeChain{
		claimable: func(common.Address) (*big.Int, error) {
			return nil, errors.New("execution reverted")
		},
	}
	orch, _ := newTestOrchestrator(t, testConfig(), chain)
	w := testWallets(t, 1)[0]

	res := orch.AttemptClaim(context.Background(), w, "", 1, 1)

	if res.Outcome != OutcomeSuccess {
		t.Fatalf("expected success despite failed read, got %v", res.Outcome)
	}
	if len(chain.submits) != 1 {
		t.Errorf("expected the claim to be submitted anyway, got %d submissions", len(chain.submits))
	}
}

func TestAttemptClaimRetriesConfirmationFailure(t *testing.T) {
	t.Parallel()

	failures := 2
	chain := &fakeChain{
		waitErr: func(common.Address) error {
			if failures > 0 {
				failures--
				return errors.New("confirmation timeout")
			}
			return nil
		},
	}
	orch, _ := newTestOrchestrator(t, testConfig(), chain)
	w := testWallets(t, 1)[0]

	res := orch.AttemptClaim(context.Background(), w, "", 1, 1)

	if res.Outcome != OutcomeSuccess {
		t.Fatalf("expected eventual success, got %v (err %v)", res.Outcome, res.Err)
	}
	if res.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", res.Attempts)
	}
}

func TestNextWait(t *testing.T) {
	t.Parallel()

	orch, _ := newTestOrchestrator(t, testConfig(), &fakeChain{})

	t.Run("after a claim, the long post-claim interval", func(t *testing.T) {
		t.Parallel()
		got := orch.NextWait(CycleStats{Success: 1, Skipped: 4})
		if got != 23*time.Hour {
			t.Errorf("got %v, want 23h", got)
		}
	})

	t.Run("skips alone use the short recheck interval", func(t *testing.T) {
		t.Parallel()
		got := orch.NextWait(CycleStats{Success: 0, Skipped: 5})
		if got != time.Hour {
			t.Errorf("got %v, want 1h", got)
		}
	})

	t.Run("failures alone use the short recheck interval", func(t *testing.T) {
		t.Parallel()
		got := orch.NextWait(CycleStats{Success: 0, Failed: 3})
		if got != time.Hour {
			t.Errorf("got %v, want 1h", got)
		}
	})
}

func TestCycleEndToEnd(t *testing.T) {
	t.Parallel()

	wallets := testWallets(t, 2)
	walletA, walletB := wallets[0], wallets[1]

	chain := &fakeChain{
		claimable: func(addr common.Address) (*big.Int, error) {
			if addr == walletA.Address {
				return big.NewInt(0), nil
			}
			return big.NewInt(1000), nil
		},
	}

	rec := &sleepRecorder{}
	var success, failure bytes.Buffer
	now := func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	book := logbook.NewWithWriters(&success, &failure, now)
	orch := New(testConfig(), chain, book,
		WithSleep(rec.sleep),
		WithRand(rand.New(rand.NewSource(1))),
	)

	stats := orch.RunCycle(context.Background(), wallets, &proxypool.Pool{})

	if stats.Success != 1 || stats.Skipped != 1 || stats.Failed != 0 || stats.Total != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if len(chain.submits) != 1 || chain.submits[0] != walletB.Address {
		t.Errorf("expected exactly one submission for wallet B, got %v", chain.submits)
	}

	lines := strings.Split(strings.TrimSpace(success.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 success-log lines (one claim, one skip), got %d:\n%s", len(lines), success.String())
	}
	var claimed, skipped int
	for _, line := range lines {
		switch {
		case strings.Contains(line, "already claimed"):
			skipped++
			if !strings.Contains(line, walletA.Address.Hex()) {
				t.Errorf("skip line does not mention wallet A: %s", line)
			}
		case strings.Contains(line, "tx 0x"):
			claimed++
			if !strings.Contains(line, walletB.Address.Hex()) {
				t.Errorf("claim line does not mention wallet B: %s", line)
			}
		}
	}
	if claimed != 1 || skipped != 1 {
		t.Errorf("expected 1 claim line and 1 skip line, got %d and %d", claimed, skipped)
	}
	if failure.Len() != 0 {
		t.Errorf("expected empty error log, got: %s", failure.String())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	chain := &fakeChain{}
	orch, _ := newTestOrchestrator(t, testConfig(), chain)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := orch.Run(ctx, testWallets(t, 2), &proxypool.Pool{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestAttemptClaimConnectFailureExhaustsRetries(t *testing.T) {
	t.Parallel()

	chain := &fakeChain{connErr: errors.New("proxy refused")}
	cfg := testConfig()
	cfg.MaxRetries = 1
	orch, _ := newTestOrchestrator(t, cfg, chain)
	w := testWallets(t, 1)[0]

	res := orch.AttemptClaim(context.Background(), w, "http://dead:1", 1, 1)

	if res.Outcome != OutcomeFailure {
		t.Fatalf("expected failure, got %v", res.Outcome)
	}
	if len(chain.connects) != 2 {
		t.Errorf("expected 2 connect attempts, got %d", len(chain.connects))
	}
	if res.Err == nil || !strings.Contains(res.Err.Error(), "proxy refused") {
		t.Errorf("expected the last error to surface, got %v", res.Err)
	}
}
