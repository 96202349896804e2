package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
)

// Webhook posts notifications to the external delivery service (SMS/push is
// out of scope here; the webhook owner fans out). Retries are bounded so a
// dead endpoint cannot stall callers for long.
type Webhook struct {
	url    string
	client *httpclient.Client
}

type payload struct {
	AccountID int64  `json:"account_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
}

func NewWebhook(url string) *Webhook {
	backoff := heimdall.NewConstantBackoff(500*time.Millisecond, 100*time.Millisecond)
	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(5*time.Second),
		httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
		httpclient.WithRetryCount(2),
	)
	return &Webhook{url: url, client: client}
}

func (w *Webhook) Notify(ctx context.Context, accountID int64, title, body string) error {
	if w.url == "" {
		return nil
	}

	b, err := json.Marshal(payload{AccountID: accountID, Title: title, Body: body})
	if err != nil {
		return err
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	res, err := w.client.Post(w.url, bytes.NewReader(b), headers)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("notify webhook returned %d", res.StatusCode)
	}
	return nil
}
