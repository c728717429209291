package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const botAPIBaseURL = "https://api.telegram.org"

// Bot is a thin Bot API client covering the three calls this service needs.
type Bot struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewBot(token string) *Bot {
	return &Bot{
		baseURL: botAPIBaseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL overrides the API host, used by tests.
func (b *Bot) WithBaseURL(baseURL string) *Bot {
	b.baseURL = strings.TrimRight(baseURL, "/")
	return b
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

func (b *Bot) SendPrivateMessage(ctx context.Context, telegramID int64, text string) error {
	return b.call(ctx, "sendMessage", url.Values{
		"chat_id": {strconv.FormatInt(telegramID, 10)},
		"text":    {text},
	})
}

func (b *Bot) KickMember(ctx context.Context, telegramID, chatID int64) error {
	return b.call(ctx, "banChatMember", url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"user_id": {strconv.FormatInt(telegramID, 10)},
	})
}

func (b *Bot) UnbanMember(ctx context.Context, telegramID, chatID int64) error {
	return b.call(ctx, "unbanChatMember", url.Values{
		"chat_id":        {strconv.FormatInt(chatID, 10)},
		"user_id":        {strconv.FormatInt(telegramID, 10)},
		"only_if_banned": {"true"},
	})
}

func (b *Bot) call(ctx context.Context, method string, params url.Values) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", b.baseURL, b.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.client.Do(req)
	if err != nil {
		return &Error{Code: CodeUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Code: CodeUnavailable, Message: err.Error()}
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return &Error{Code: CodeUnavailable, Message: fmt.Sprintf("status %d", resp.StatusCode)}
	}
	if parsed.OK {
		return nil
	}
	return &Error{Code: classify(parsed), Message: parsed.Description}
}

func classify(resp apiResponse) string {
	description := strings.ToLower(resp.Description)
	switch {
	case strings.Contains(description, "bot was blocked"),
		strings.Contains(description, "user is deactivated"),
		strings.Contains(description, "can't initiate conversation"):
		return CodeUserBlockedBot
	case strings.Contains(description, "user not found"),
		strings.Contains(description, "participant_id_invalid"),
		strings.Contains(description, "user_not_participant"):
		return CodeUserNotInGroup
	case resp.ErrorCode == http.StatusUnauthorized,
		strings.Contains(description, "not enough rights"),
		strings.Contains(description, "chat_admin_required"):
		return CodeUnauthorized
	default:
		return CodeUnavailable
	}
}
