// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for JSON responses. Mutations
// announce themselves through the X-Ledger-Event header so clients can
// refresh the views that depend on them.

package http

import (
	"encoding/json"
	"net/http"
)

// HeaderLedgerEvent lists the ledger events a response caused, as a JSON object.
const HeaderLedgerEvent = "X-Ledger-Event"

// Event names carried in the X-Ledger-Event header.
const (
	EventWalletCreated       = "wallet:created"
	EventWalletUpdated       = "wallet:updated"
	EventWalletDeleted       = "wallet:deleted"
	EventTransactionRecorded = "transaction:recorded"
	EventTransactionEdited   = "transaction:edited"
	EventTransactionDeleted  = "transaction:deleted"
	EventBudgetChanged       = "budget:changed"
	EventSavingGoalChanged   = "saving-goal:changed"
	EventPortfolioChanged    = "portfolio:changed"
)

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	events     map[string]interface{}
	statusCode int
	body       interface{}
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		events:     make(map[string]interface{}),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Event adds a named event with optional data to the X-Ledger-Event header.
func (b *ResponseBuilder) Event(name string, data interface{}) *ResponseBuilder {
	if data == nil {
		data = struct{}{}
	}
	b.events[name] = data
	return b
}

// WalletEvent adds an event scoped to one wallet.
func (b *ResponseBuilder) WalletEvent(name, walletID string) *ResponseBuilder {
	return b.Event(name, map[string]string{"wallet_id": walletID})
}

// TransactionEvent adds an event scoped to one transaction.
func (b *ResponseBuilder) TransactionEvent(name, walletID, txID string) *ResponseBuilder {
	return b.Event(name, map[string]string{"wallet_id": walletID, "transaction_id": txID})
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value to encode as the response body.
func (b *ResponseBuilder) JSON(v interface{}) *ResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.events) > 0 {
		if eventJSON, err := json.Marshal(b.events); err == nil {
			w.Header().Set(HeaderLedgerEvent, string(eventJSON))
		}
	}

	if b.body == nil || b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}

	data, err := json.Marshal(b.body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(data)
	_, _ = w.Write([]byte("\n"))
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a standard {"error": message} response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func TooManyRequestsError() *ResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later")
}
