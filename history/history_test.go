package history

import (
	"errors"
	"testing"
	"time"

	"airdrop_soft/claimer"
	"airdrop_soft/wallet"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAttempt(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	wallets, err := wallet.Generate(1)
	if err != nil {
		t.Fatalf("generating wallet: %v", err)
	}
	w := wallets[0]

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	attempts := []claimer.Result{
		{Outcome: claimer.OutcomeSuccess, Wallet: w, TxHash: "0x111", Attempts: 1},
		{Outcome: claimer.OutcomeSkipped, Wallet: w},
		{Outcome: claimer.OutcomeFailure, Wallet: w, Err: errors.New("rpc timeout"), Attempts: 6},
	}
	for i, res := range attempts {
		if err := store.RecordAttempt(res, ts); err != nil {
			t.Fatalf("RecordAttempt(%d) = %v", i, err)
		}
	}

	rows, err := store.db.Query(`SELECT outcome, tx_hash, error, retries FROM attempts ORDER BY id`)
	if err != nil {
		t.Fatalf("querying attempts: %v", err)
	}
	defer rows.Close()

	type row struct {
		outcome, txHash, errText string
		retries                  int
	}
	var got []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.outcome, &r.txHash, &r.errText, &r.retries); err != nil {
			t.Fatalf("scanning row: %v", err)
		}
		got = append(got, r)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterating rows: %v", err)
	}

	want := []row{
		{outcome: "success", txHash: "0x111", retries: 1},
		{outcome: "skipped"},
		{outcome: "failure", errText: "rpc timeout", retries: 6},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRecordCycle(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)

	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	stats := claimer.CycleStats{
		Success: 3,
		Skipped: 2,
		Failed:  1,
		Total:   6,
		Start:   start,
		End:     start.Add(10 * time.Minute),
		Elapsed: 10 * time.Minute,
	}
	if err := store.RecordCycle(stats); err != nil {
		t.Fatalf("RecordCycle() = %v", err)
	}

	var success, skipped, failed, total int
	err := store.db.QueryRow(`SELECT success, skipped, failed, total FROM cycles`).
		Scan(&success, &skipped, &failed, &total)
	if err != nil {
		t.Fatalf("querying cycle: %v", err)
	}
	if success != 3 || skipped != 2 || failed != 1 || total != 6 {
		t.Errorf("cycle row = %d/%d/%d/%d, want 3/2/1/6", success, skipped, failed, total)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	first, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open() = %v", err)
	}
	wallets, err := wallet.Generate(1)
	if err != nil {
		t.Fatalf("generating wallet: %v", err)
	}
	res := claimer.Result{Outcome: claimer.OutcomeSuccess, Wallet: wallets[0], TxHash: "0xaaa", Attempts: 1}
	if err := first.RecordAttempt(res, time.Now()); err != nil {
		t.Fatalf("RecordAttempt() = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	// Reopening the same directory keeps the data.
	second, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open() = %v", err)
	}
	defer second.Close()

	var count int
	if err := second.db.QueryRow(`SELECT COUNT(*) FROM attempts`).Scan(&count); err != nil {
		t.Fatalf("counting attempts: %v", err)
	}
	if count != 1 {
		t.Errorf("attempts after reopen = %d, want 1", count)
	}
}
