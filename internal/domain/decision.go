package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// Decision is an approver's answer to a pending registration
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Status returns the account status a decision moves the subject to
func (d Decision) Status() AccStatus {
	if d == DecisionApprove {
		return StatusApproved
	}
	return StatusRejected
}

// legacy textual payload, e.g. "Approve 123"
var decisionRx = regexp.MustCompile(`^(Approve|Reject) ([1-9][0-9]*)$`)

// ParseDecision decodes a callback payload of the form "Approve <id>" or
// "Reject <id>".
func ParseDecision(payload string) (Decision, int64, error) {
	m := decisionRx.FindStringSubmatch(payload)
	if m == nil {
		return "", 0, fmt.Errorf("invalid decision payload %q", payload)
	}

	id, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid subject id: %w", err)
	}

	if m[1] == "Approve" {
		return DecisionApprove, id, nil
	}
	return DecisionReject, id, nil
}

// ParseSubject decodes the user id carried as button data
func ParseSubject(data string) (int64, error) {
	id, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject id %q: %w", data, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid subject id %q", data)
	}
	return id, nil
}
