package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"signal-enginev1/internal/model"
	"signal-enginev1/internal/position"
)

// TelegramNotifier pushes lifecycle alerts to a Telegram chat via the
// Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	client   *http.Client
}

// NewTelegramNotifier creates a Telegram notifier.
// botToken: Bot API token from @BotFather
// chatID: Target chat/group/channel ID
func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) TradeOpened(ctx context.Context, tr model.OpenTrade) error {
	return t.send(ctx, openText(tr))
}

func (t *TelegramNotifier) TradeSettled(ctx context.Context, r model.TradeRecord) error {
	return t.send(ctx, settleText(r))
}

func (t *TelegramNotifier) DaySummary(ctx context.Context, s position.DaySummary) error {
	return t.send(ctx, summaryText(s))
}

// mdEscaper escapes the characters Telegram MarkdownV2 reserves.
var mdEscaper = strings.NewReplacer(
	"_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
	"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`,
	"=", `\=`, "|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
)

func (t *TelegramNotifier) send(ctx context.Context, text string) error {
	body, _ := json.Marshal(map[string]interface{}{
		"chat_id":    t.chatID,
		"text":       mdEscaper.Replace(text),
		"parse_mode": "MarkdownV2",
	})

	url := "https://api.telegram.org/bot" + t.botToken + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: unexpected status %d", resp.StatusCode)
	}
	return nil
}
