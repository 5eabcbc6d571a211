package webhooks

import (
	"time"

	"github.com/jmerrifield20/hashledger/internal/ledger"
)

// EventBlockSealed is sent once for every sealed block.
const EventBlockSealed = "block.sealed"

// Subscription is one configured webhook endpoint.
type Subscription struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"-" mapstructure:"secret"` // never returned in API responses
}

// Event is the JSON body POSTed to subscribers.
type Event struct {
	Type      string       `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	Block     ledger.Block `json:"block"`
}

// Delivery records the outcome of a single delivery attempt.
type Delivery struct {
	URL          string    `json:"url"`
	BlockIndex   int       `json:"block_index"`
	StatusCode   int       `json:"status_code"`
	Attempt      int       `json:"attempt"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	DeliveredAt  time.Time `json:"delivered_at"`
}
