package handler

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v3"
)

// Telegram allows roughly 30 messages per second across chats
const sendRate = rate.Limit(30)

// Sender delivers messages to a chat. *tele.Bot satisfies it.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Notifier sends approval requests with Approve and Reject buttons
type Notifier struct {
	sender  Sender
	limiter *rate.Limiter
}

// NewNotifier creates a notifier on top of sender
func NewNotifier(sender Sender) *Notifier {
	return &Notifier{
		sender:  sender,
		limiter: rate.NewLimiter(sendRate, 1),
	}
}

// RequestApproval sends text to chatID with buttons carrying subjectID. It
// waits for a send slot at most 10 seconds.
func (n *Notifier) RequestApproval(ctx context.Context, chatID int64, text string, subjectID int64) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := n.sender.Send(tele.ChatID(chatID), text, approvalMarkup(subjectID))
	return err
}

// approvalMarkup returns the Approve/Reject keyboard for a subject
func approvalMarkup(subjectID int64) *tele.ReplyMarkup {
	data := strconv.FormatInt(subjectID, 10)

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(
			markup.Data(btnApprove.Text, btnApprove.Unique, data),
			markup.Data(btnReject.Text, btnReject.Unique, data),
		),
	)
	return markup
}
