package ports

import "time"

type EventKind string

const (
	TransactionRecorded EventKind = "transaction.recorded"
	TransactionEdited   EventKind = "transaction.edited"
	TransactionDeleted  EventKind = "transaction.deleted"
	WalletDeleted       EventKind = "wallet.deleted"
)

func (k EventKind) Valid() bool {
	switch k {
	case TransactionRecorded, TransactionEdited, TransactionDeleted, WalletDeleted:
		return true
	}
	return false
}

// LedgerEvent describes a single ledger mutation.
type LedgerEvent struct {
	Kind          EventKind `json:"kind"`
	WalletID      string    `json:"wallet_id"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Version       int64     `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
}

// IsTransactionEvent reports whether the event refers to a single transaction.
func (e LedgerEvent) IsTransactionEvent() bool {
	return e.TransactionID != "" && e.Kind != WalletDeleted
}
