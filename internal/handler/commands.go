package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"attendance/internal/domain"
	"attendance/internal/service"
	"attendance/internal/sheets"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleHelp handles /start and /help
func (h *Handler) handleHelp(c tele.Context) error {
	if h.interrupt(c) {
		return nil
	}

	h.logger.Info("Help requested",
		zap.Int64("user_id", c.Sender().ID),
		zap.String("username", c.Sender().Username),
	)
	return c.Send(msgHelp)
}

// handleRegister handles /register
func (h *Handler) handleRegister(c tele.Context) error {
	userID := c.Sender().ID

	h.logger.Info("Registration command received", zap.Int64("user_id", userID))

	reply := h.registration.Begin(context.Background(), userID, c.Chat().ID)
	return c.Send(reply)
}

// handleCancel handles /cancel
func (h *Handler) handleCancel(c tele.Context) error {
	return c.Send(h.registration.Cancel(context.Background(), c.Sender().ID))
}

// handleUpdate handles /update <status>
func (h *Handler) handleUpdate(c tele.Context) error {
	if h.interrupt(c) {
		return nil
	}
	return h.updateChain(c)
}

func (h *Handler) handleUpdateStatus(c tele.Context) error {
	userID := c.Sender().ID
	status := ""
	if msg := c.Message(); msg != nil {
		status = msg.Payload
	}

	err := h.attendance.UpdateStatus(context.Background(), userID, status)
	switch {
	case err == nil:
		normalized, _ := service.NormalizeStatus(status)
		return c.Send(fmt.Sprintf(msgStatusUpdated, normalized))
	case errors.Is(err, service.ErrInvalidStatus):
		return c.Send(msgStatusUsage)
	case errors.Is(err, service.ErrSheetNotReady):
		return c.Send(msgSheetNotReady)
	case errors.Is(err, service.ErrNotOnSheet):
		return c.Send(msgNotOnSheet)
	case errors.Is(err, sheets.ErrTargetMissing):
		h.logger.Fatal("Attendance sheet disappeared, halting", zap.Int64("user_id", userID), zap.Error(err))
		return err
	default:
		h.logger.Error("Failed to update status", zap.Int64("user_id", userID), zap.Error(err))
		return c.Send(domain.MsgGenericError)
	}
}

// handleText feeds free text into an open registration dialog. Commands
// without their own handler also land here.
func (h *Handler) handleText(c tele.Context) error {
	userID := c.Sender().ID
	text := c.Text()

	input := domain.TextInput(text)
	if strings.HasPrefix(text, "/") {
		input = domain.Input{Kind: domain.InputUnknown}
	}

	reply, ok := h.registration.Handle(context.Background(), userID, input)
	if !ok {
		h.logger.Debug("Ignoring message outside of a dialog", zap.Int64("user_id", userID))
		return nil
	}
	return c.Send(reply)
}

// handleNonText ends an open dialog on media, stickers and the like
func (h *Handler) handleNonText(c tele.Context) error {
	h.interrupt(c)
	return nil
}

// interrupt ends the sender's open dialog with an error reply. It reports
// whether a dialog was open.
func (h *Handler) interrupt(c tele.Context) bool {
	sender := c.Sender()
	if sender == nil {
		return false
	}

	reply, ok := h.registration.Handle(context.Background(), sender.ID, domain.Input{Kind: domain.InputUnknown})
	if !ok {
		return false
	}
	if err := c.Send(reply); err != nil {
		h.logger.Warn("Failed to send reply", zap.Int64("user_id", sender.ID), zap.Error(err))
	}
	return true
}
