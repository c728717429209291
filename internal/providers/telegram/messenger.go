// Package telegram exposes the GroupMessenger capability used to notify and
// remove members. USER_BLOCKED_BOT and USER_NOT_IN_GROUP are expected
// outcomes callers must branch on, not failures.
package telegram

import (
	"context"
	"errors"
	"fmt"
)

const (
	CodeUserBlockedBot = "USER_BLOCKED_BOT"
	CodeUserNotInGroup = "USER_NOT_IN_GROUP"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeUnavailable    = "UNAVAILABLE"
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("telegram: %s (%s)", e.Message, e.Code)
}

func IsUserBlocked(err error) bool    { return hasCode(err, CodeUserBlockedBot) }
func IsUserNotInGroup(err error) bool { return hasCode(err, CodeUserNotInGroup) }

// IsUnauthorized reports bot permission problems, which will not self-resolve
// and must be alerted instead of retried.
func IsUnauthorized(err error) bool { return hasCode(err, CodeUnauthorized) }

func hasCode(err error, code string) bool {
	var terr *Error
	return errors.As(err, &terr) && terr.Code == code
}

type Messenger interface {
	SendPrivateMessage(ctx context.Context, telegramID int64, text string) error
	KickMember(ctx context.Context, telegramID, chatID int64) error
	UnbanMember(ctx context.Context, telegramID, chatID int64) error
}
