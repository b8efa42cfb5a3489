// internal/notify/telegram.go
package notify

import (
	"context"
	"fmt"
	"strings"

	httpclient "offer-ledger/internal/common/http"
)

// Telegram sends messages through the Bot API sendMessage method.
type Telegram struct {
	client  *httpclient.Client
	baseURL string
	token   string
}

func NewTelegram(client *httpclient.Client, baseURL, token string) *Telegram {
	return &Telegram{client: client, baseURL: strings.TrimRight(baseURL, "/"), token: token}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

func (t *Telegram) Send(ctx context.Context, chatID, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	var resp sendMessageResponse
	if err := t.client.PostJSON(ctx, url, sendMessageRequest{ChatID: chatID, Text: text}, &resp); err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("telegram rejected message: %s", resp.Description)
	}
	return nil
}
