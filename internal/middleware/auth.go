package middleware

import (
	"context"

	"attendance/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// MsgNotApproved is sent to users without an approved account
const MsgNotApproved = "Only approved members can do this. Use /register to apply."

// ApprovalChecker reports whether a user has an approved account
type ApprovalChecker interface {
	IsApproved(ctx context.Context, userID int64) (bool, error)
}

// ApprovedOnly creates middleware that lets only approved users through
func ApprovedOnly(accounts ApprovalChecker, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}

			approved, err := accounts.IsApproved(context.Background(), sender.ID)
			if err != nil {
				logger.Error("Failed to check approval in middleware",
					zap.Int64("user_id", sender.ID),
					zap.Error(err),
				)
				return c.Send(domain.MsgGenericError)
			}

			if !approved {
				logger.Info("Rejected command from unapproved user",
					zap.Int64("user_id", sender.ID),
					zap.String("text", c.Text()),
				)
				return c.Send(MsgNotApproved)
			}

			return next(c)
		}
	}
}
