package handler

import (
	"attendance/internal/domain"
	"attendance/internal/middleware"
	"attendance/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Handler manages all bot interactions
type Handler struct {
	bot          *tele.Bot
	registration *service.RegistrationService
	approvals    *service.ApprovalService
	attendance   *service.AttendanceService
	accounts     *service.AccountService
	logger       *zap.Logger

	// updateChain is /update wrapped in the approved-only check
	updateChain tele.HandlerFunc
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	registration *service.RegistrationService,
	approvals *service.ApprovalService,
	attendance *service.AttendanceService,
	accounts *service.AccountService,
	logger *zap.Logger,
) *Handler {
	h := &Handler{
		bot:          bot,
		registration: registration,
		approvals:    approvals,
		attendance:   attendance,
		accounts:     accounts,
		logger:       logger,
	}
	h.updateChain = middleware.ApprovedOnly(accounts, logger)(h.handleUpdateStatus)
	return h
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Commands
	h.bot.Handle("/start", h.handleHelp)
	h.bot.Handle("/help", h.handleHelp)
	h.bot.Handle("/register", h.handleRegister)
	h.bot.Handle("/cancel", h.handleCancel)
	h.bot.Handle("/update", h.handleUpdate)

	// Dialog replies, unknown commands included
	h.bot.Handle(tele.OnText, h.handleText)

	// Anything else ends an open dialog
	for _, endpoint := range nonTextEndpoints {
		h.bot.Handle(endpoint, h.handleNonText)
	}

	// Approval buttons
	h.bot.Handle(&btnApprove, h.handleDecision(domain.DecisionApprove))
	h.bot.Handle(&btnReject, h.handleDecision(domain.DecisionReject))

	// Generic callback handler for textual payloads
	h.bot.Handle(tele.OnCallback, h.handleCallback)
}

// Commands lists the bot commands shown in the client menu
func Commands() []tele.Command {
	return []tele.Command{
		{Text: "register", Description: "Start the registration process"},
		{Text: "cancel", Description: "Stop the registration process"},
		{Text: "update", Description: "Set your status for the day"},
		{Text: "help", Description: "Show available commands"},
	}
}

var nonTextEndpoints = []string{
	tele.OnPhoto,
	tele.OnAudio,
	tele.OnAnimation,
	tele.OnDocument,
	tele.OnSticker,
	tele.OnVideo,
	tele.OnVoice,
	tele.OnVideoNote,
	tele.OnContact,
	tele.OnLocation,
	tele.OnVenue,
	tele.OnDice,
	tele.OnPoll,
}

// Inline keyboard buttons
var (
	btnApprove = tele.Btn{
		Unique: "approve",
		Text:   "Approve",
	}
	btnReject = tele.Btn{
		Unique: "reject",
		Text:   "Reject",
	}
)

// Replies
const (
	msgHelp = "This bot updates your attendance.\n\n" +
		"/register: starts the registration process\n" +
		"/cancel: stops the registration process\n" +
		"/update <status>: sets your status for the day\n" +
		"/help: prints this message"
	msgStatusUsage   = "Usage: /update <status>. The status must be 1-50 characters long."
	msgStatusUpdated = "Your status for today has been set to %q."
	msgSheetNotReady = "Today's attendance sheet is not ready yet. Please try again later."
	msgNotOnSheet    = "You are not on today's attendance sheet yet. You will be added at the next daily rollover."
)
