// Package webhooks POSTs sealed blocks to configured HTTP endpoints.
package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jmerrifield20/hashledger/internal/ledger"
)

// SignatureHeader carries the HMAC-SHA256 of the request body.
const SignatureHeader = "X-Ledger-Signature"

const maxAttempts = 3

// historySize bounds the in-memory delivery log.
const historySize = 100

// MetricsRecorder is an optional callback for recording delivery outcomes.
type MetricsRecorder func(success bool)

// Dispatcher delivers sealed blocks to every subscription.
type Dispatcher struct {
	subs       []Subscription
	httpClient *http.Client
	onMetrics  MetricsRecorder
	logger     *zap.Logger
	delays     [maxAttempts]time.Duration
	wg         sync.WaitGroup

	mu      sync.Mutex
	history []Delivery
}

// NewDispatcher creates a Dispatcher for subs.
func NewDispatcher(subs []Subscription, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		subs:       subs,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		// Backoff before each attempt.
		delays: [maxAttempts]time.Duration{0, 1 * time.Second, 5 * time.Second},
	}
}

// SetMetricsRecorder configures the metrics callback.
func (d *Dispatcher) SetMetricsRecorder(fn MetricsRecorder) {
	d.onMetrics = fn
}

// Subscriptions returns the configured endpoints.
func (d *Dispatcher) Subscriptions() []Subscription {
	return append([]Subscription(nil), d.subs...)
}

// Run dispatches every block received on blocks until the channel closes or
// ctx is done, then waits for in-flight deliveries.
func (d *Dispatcher) Run(ctx context.Context, blocks <-chan ledger.Block) {
	defer d.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-blocks:
			if !ok {
				return
			}
			d.Dispatch(ctx, b)
		}
	}
}

// Dispatch fans a sealed block out to all subscriptions without waiting for
// delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, b ledger.Block) {
	event := Event{
		Type:      EventBlockSealed,
		Timestamp: time.Now().UTC(),
		Block:     b,
	}
	body, err := json.Marshal(event)
	if err != nil {
		d.logger.Error("webhook: marshal event", zap.Error(err))
		return
	}

	for _, sub := range d.subs {
		d.wg.Add(1)
		go func(sub Subscription) {
			defer d.wg.Done()
			d.deliver(ctx, sub, b.Index, body)
		}(sub)
	}
}

// Wait blocks until every started delivery has finished.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// deliver sends body to a single subscription with retries.
func (d *Dispatcher) deliver(ctx context.Context, sub Subscription, index int, body []byte) {
	signature := signPayload(body, sub.Secret)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if delay := d.delays[attempt-1]; delay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}

		success, statusCode, errMsg := d.doDelivery(ctx, sub.URL, body, signature)
		d.record(Delivery{
			URL:          sub.URL,
			BlockIndex:   index,
			StatusCode:   statusCode,
			Attempt:      attempt,
			Success:      success,
			ErrorMessage: errMsg,
			DeliveredAt:  time.Now().UTC(),
		})

		if d.onMetrics != nil {
			d.onMetrics(success)
		}

		if success {
			d.logger.Debug("webhook: delivered",
				zap.String("url", sub.URL),
				zap.Int("index", index),
				zap.Int("attempt", attempt),
			)
			return
		}

		d.logger.Warn("webhook: delivery failed",
			zap.String("url", sub.URL),
			zap.Int("index", index),
			zap.Int("attempt", attempt),
			zap.String("error", errMsg),
		)
	}
}

// doDelivery performs a single HTTP POST delivery.
func (d *Dispatcher) doDelivery(ctx context.Context, url string, body []byte, signature string) (bool, int, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, 0, err.Error()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, signature)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return false, 0, err.Error()
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024)) //nolint:errcheck

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	errMsg := ""
	if !success {
		errMsg = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return success, resp.StatusCode, errMsg
}

func (d *Dispatcher) record(del Delivery) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history = append(d.history, del)
	if over := len(d.history) - historySize; over > 0 {
		d.history = append(d.history[:0:0], d.history[over:]...)
	}
}

// Deliveries returns the most recent delivery attempts, newest first.
func (d *Dispatcher) Deliveries() []Delivery {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Delivery, len(d.history))
	for i, del := range d.history {
		out[len(out)-1-i] = del
	}
	return out
}

// signPayload computes an HMAC-SHA256 signature.
func signPayload(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches body under secret.
// Receivers use it to authenticate deliveries.
func VerifySignature(body []byte, secret, signature string) bool {
	return hmac.Equal([]byte(signPayload(body, secret)), []byte(signature))
}
