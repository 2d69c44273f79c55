package handler

import (
	"context"
	"strings"
	"unicode"

	"attendance/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// handleEditError handles errors from c.Edit(). A message that is already in
// the requested state is only acknowledged; any other error is acknowledged
// and returned so the caller can send a new message instead.
func (h *Handler) handleEditError(err error, c tele.Context, userID int64) error {
	if err == nil {
		return nil
	}

	if strings.Contains(err.Error(), "message is not modified") {
		h.logger.Debug("Approval request already edited, acknowledging",
			zap.Int64("user_id", userID),
			zap.String("callback_id", c.Callback().ID),
		)
		c.Respond()
		return nil
	}

	h.logger.Warn("Failed to edit approval request, sending new",
		zap.Error(err),
		zap.Int64("user_id", userID),
		zap.String("callback_id", c.Callback().ID),
	)
	if ackErr := c.Respond(); ackErr != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(ackErr))
	}
	return err
}

// handleDecision handles the approve and reject buttons
func (h *Handler) handleDecision(decision domain.Decision) tele.HandlerFunc {
	return func(c tele.Context) error {
		callback := c.Callback()
		if callback == nil {
			return nil
		}

		subjectID, err := domain.ParseSubject(cleanCallbackData(callback.Data))
		if err != nil {
			h.logger.Warn("Malformed decision callback",
				zap.String("data", callback.Data),
				zap.String("decision", string(decision)),
				zap.Error(err),
			)
			return c.Respond()
		}
		return h.decide(c, decision, subjectID)
	}
}

// handleCallback handles callbacks no button claimed, such as the textual
// "Approve 123" payload
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		h.logger.Warn("handleCallback: callback is nil")
		return nil
	}

	data := cleanCallbackData(callback.Data)
	h.logger.Info("handleCallback: Processing callback",
		zap.String("data", data),
		zap.String("id", callback.ID),
		zap.String("unique", callback.Unique),
		zap.Int64("user_id", c.Sender().ID),
	)

	switch callback.Unique {
	case btnApprove.Unique:
		return h.handleDecision(domain.DecisionApprove)(c)
	case btnReject.Unique:
		return h.handleDecision(domain.DecisionReject)(c)
	}

	decision, subjectID, err := domain.ParseDecision(data)
	if err != nil {
		h.logger.Warn("Unhandled callback in handleCallback",
			zap.String("data", data),
			zap.String("unique", callback.Unique),
		)
		return c.Respond()
	}
	return h.decide(c, decision, subjectID)
}

// decide applies the decision and replaces the approval request with the
// outcome
func (h *Handler) decide(c tele.Context, decision domain.Decision, subjectID int64) error {
	approverID := c.Sender().ID

	text, err := h.approvals.Decide(context.Background(), decision, subjectID)
	if err != nil {
		h.logger.Error("Failed to apply decision",
			zap.Int64("approver_id", approverID),
			zap.Int64("subject_id", subjectID),
			zap.Error(err),
		)
		if ackErr := c.Respond(); ackErr != nil {
			h.logger.Warn("Failed to acknowledge callback", zap.Error(ackErr))
		}
		return c.Send(domain.MsgGenericError)
	}

	if err := c.Edit(text); err != nil {
		if handleErr := h.handleEditError(err, c, approverID); handleErr == nil {
			return nil
		}
		return c.Send(text)
	}
	return c.Respond()
}
