package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBotServer(t *testing.T, response string) *Bot {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return NewBot("bot-token").WithBaseURL(srv.URL)
}

func TestSendPrivateMessage(t *testing.T) {
	var gotPath string
	var gotChatID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotChatID = r.PostFormValue("chat_id")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	bot := NewBot("bot-token").WithBaseURL(srv.URL)
	err := bot.SendPrivateMessage(context.Background(), 42, "hello")
	require.NoError(t, err)
	assert.Equal(t, "/botbot-token/sendMessage", gotPath)
	assert.Equal(t, "42", gotChatID)
}

func TestKickMemberBlockedUser(t *testing.T) {
	bot := newBotServer(t, `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`)

	err := bot.SendPrivateMessage(context.Background(), 42, "hello")
	assert.True(t, IsUserBlocked(err))
	assert.False(t, IsUserNotInGroup(err))
}

func TestKickMemberNotInGroup(t *testing.T) {
	bot := newBotServer(t, `{"ok":false,"error_code":400,"description":"Bad Request: USER_NOT_PARTICIPANT"}`)

	err := bot.KickMember(context.Background(), 42, 555)
	assert.True(t, IsUserNotInGroup(err))
}

func TestKickMemberUnauthorized(t *testing.T) {
	bot := newBotServer(t, `{"ok":false,"error_code":400,"description":"Bad Request: not enough rights to restrict/unrestrict chat member"}`)

	err := bot.KickMember(context.Background(), 42, 555)
	assert.True(t, IsUnauthorized(err))
}

func TestUnbanMemberOK(t *testing.T) {
	bot := newBotServer(t, `{"ok":true}`)

	assert.NoError(t, bot.UnbanMember(context.Background(), 42, 555))
}
