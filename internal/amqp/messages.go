package amqp

import (
	"encoding/json"
	"errors"
	"fmt"

	"finapp/internal/ports"
)

var ErrMalformedEvent = errors.New("malformed ledger event")

// EncodeLedgerEvent converts the event to its JSON wire form.
func EncodeLedgerEvent(e ports.LedgerEvent) ([]byte, error) {
	return json.Marshal(e)
}

// DecodeLedgerEvent parses and checks a JSON ledger event.
func DecodeLedgerEvent(data []byte) (ports.LedgerEvent, error) {
	var e ports.LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return ports.LedgerEvent{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if !e.Kind.Valid() {
		return ports.LedgerEvent{}, fmt.Errorf("%w: unknown kind %q", ErrMalformedEvent, e.Kind)
	}
	if e.WalletID == "" {
		return ports.LedgerEvent{}, fmt.Errorf("%w: missing wallet id", ErrMalformedEvent)
	}
	if e.Kind != ports.WalletDeleted && e.TransactionID == "" {
		return ports.LedgerEvent{}, fmt.Errorf("%w: missing transaction id", ErrMalformedEvent)
	}
	return e, nil
}
