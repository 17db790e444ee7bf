package domain

import "time"

// Account is the immutable identity of a ledger account. Balances never live
// here; they are derived from the account's log (see AccountState).
type Account struct {
	ID           int64     `json:"id"`
	CurrencyCode string    `json:"currencyCode"`
	Description  string    `json:"description"`
	CreationTime time.Time `json:"creationTime"`
}

// AccountState is a point-in-time balance view of one account. The zero value
// is the state of a freshly created account.
//
// OwnAmount is the committed balance: the sum of all COMMIT diffs applied to
// the account. MinAvailableDiff and MaxAvailableDiff are the cumulative lower
// and upper bound adjustments contributed by holds that are not yet committed
// or rolled back. Either diff may carry either sign, but for a consistent
// series of holds MaxAvailable() >= MinAvailable() always holds.
type AccountState struct {
	OwnAmount        int64 `json:"ownAmount"`
	MinAvailableDiff int64 `json:"minAvailableDiff"`
	MaxAvailableDiff int64 `json:"maxAvailableDiff"`
}

// MinAvailable is the worst-case balance if every outstanding hold that debits
// the account settles and every crediting hold is cancelled.
func (s AccountState) MinAvailable() int64 {
	return s.OwnAmount + s.MinAvailableDiff
}

// MaxAvailable is the best-case counterpart of MinAvailable.
func (s AccountState) MaxAvailable() int64 {
	return s.OwnAmount + s.MaxAvailableDiff
}

// StatefulAccount pairs an account with a state snapshot. Instances are read
// snapshots and are never mutated; a state change produces a new value.
type StatefulAccount struct {
	Account
	State AccountState `json:"state"`
}

// AccountLog is one append-only ledger entry produced by applying a posting
// operation to one account. The accumulated columns are cumulative values (the
// resulting AccountState), the diff columns are the deltas this entry applied.
// The current state of an account is its most recent AccountLog, or the zero
// AccountState if it has none.
type AccountLog struct {
	ID             int64
	PlanID         string
	BatchID        int64
	AccountID      int64
	Operation      PostingOperation
	OwnAccumulated int64
	MaxAccumulated int64
	MinAccumulated int64
	OwnDiff        int64
	MinDiff        int64
	MaxDiff        int64
	CreationTime   time.Time
	// Credit is true when the net posting diff behind this entry is negative.
	Credit bool
	// Merged is reserved for future log compaction and is always written false.
	Merged bool
}

// AccountBalance is the reporting view of an account's committed balance at
// the edges of a time window, as read from the account log.
type AccountBalance struct {
	AccountID   int64
	StartAmount int64
	FinalAmount int64
}
