package domain

import dErrors "rollcall/pkg/domain-errors"

// Decision is a verifier's or officer's ruling. The same two-valued decision
// drives both the attendance verification workflow and the participant
// approval workflow.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ParseDecision constructs a Decision from external input.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionApprove, DecisionReject:
		return Decision(s), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown decision %q", s)
	}
}

// String returns the string representation of the decision.
func (d Decision) String() string { return string(d) }
