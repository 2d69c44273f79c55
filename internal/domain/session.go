package domain

import "strings"

// State is the position of a user inside the registration dialog
type State int

const (
	StateIdle State = iota
	StateName
	StateTitle
	StateDepartment
	StateDone
	StateCancelled
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateName:
		return "name"
	case StateTitle:
		return "title"
	case StateDepartment:
		return "department"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Active reports whether the dialog is waiting for user input in this state
func (s State) Active() bool {
	return s == StateName || s == StateTitle || s == StateDepartment
}

// InputKind classifies an inbound update for the dialog
type InputKind int

const (
	InputText InputKind = iota
	InputCancel
	InputUnknown
)

// Input is a single inbound update routed to an active session
type Input struct {
	Kind InputKind
	Text string
}

// TextInput wraps a free-text reply
func TextInput(text string) Input {
	return Input{Kind: InputText, Text: text}
}

// Session holds temporary data for a user's registration dialog
type Session struct {
	State      State
	UserID     int64
	ChatID     int64
	Name       string
	Title      string
	Department string
}

// Effect is the outcome of a transition. Exactly one of Reply or Submit is set
// for an active session: Submit means the collected registration must be
// persisted and the reply is decided by the caller.
type Effect struct {
	Reply  string
	Submit *Registration
}

// Dialog messages
const (
	MsgWelcome = "Welcome! We'll begin the registration process. " +
		"Do a /cancel at any time to exit the registration process. " +
		"Please give me your name. Only alphabets and spaces are allowed."
	MsgAskTitle        = "What is your title?"
	MsgAskDepartment   = "What is your department?"
	MsgInvalidName     = "Name given contains invalid characters or is too long. Please give a valid name."
	MsgInvalidTitle    = "Title given is invalid. Please give a valid title. E.g. exec"
	MsgInvalidDept     = "Department given is invalid. Please give a valid department. E.g. IT"
	MsgRegistered      = "Successfully registered you into the database. Please wait a few hours for approval."
	MsgCancelled       = "Stopping the registration process."
	MsgNothingToCancel = "There is no registration in progress."
	MsgGenericError    = "An exception was caught. Please contact the administrator for help."
	MsgAlreadyApproved = "Hello %s. You have already been registered into the database."
	MsgAlreadyRejected = "Hello %s. Your application has been rejected. Please contact your supervisor."
	MsgAlreadyPending  = "Hello %s. Your account is pending approval. Please check back in a few hours."
)

// NewSession opens a dialog for the user and returns the welcome prompt
func NewSession(userID, chatID int64) (Session, Effect) {
	return Session{State: StateName, UserID: userID, ChatID: chatID}, Effect{Reply: MsgWelcome}
}

// Transition advances the dialog by one input. It never performs I/O.
func Transition(s Session, in Input) (Session, Effect) {
	if !s.State.Active() {
		return s, Effect{}
	}

	switch in.Kind {
	case InputCancel:
		s.State = StateCancelled
		return s, Effect{Reply: MsgCancelled}
	case InputUnknown:
		s.State = StateError
		return s, Effect{Reply: MsgGenericError}
	}

	switch s.State {
	case StateName:
		if !ValidName(in.Text) {
			return s, Effect{Reply: MsgInvalidName}
		}
		s.Name = in.Text
		s.State = StateTitle
		return s, Effect{Reply: MsgAskTitle}

	case StateTitle:
		title := strings.ToUpper(in.Text)
		if !ValidTitle(title) {
			return s, Effect{Reply: MsgInvalidTitle}
		}
		s.Title = title
		s.State = StateDepartment
		return s, Effect{Reply: MsgAskDepartment}

	default: // StateDepartment
		if !ValidDepartment(in.Text) {
			return s, Effect{Reply: MsgInvalidDept}
		}
		s.Department = in.Text
		s.State = StateDone
		return s, Effect{Submit: &Registration{
			UserID:     s.UserID,
			ChatID:     s.ChatID,
			Name:       s.Name,
			Title:      s.Title,
			Department: s.Department,
		}}
	}
}
