package signature

import (
	"errors"
	"time"
)

var ErrAlreadySigned = errors.New("judge already signed this match")

// Signature is one judge's sign-off on a match's results. One per judge per
// match; the blob is opaque to the engine.
type Signature struct {
	MatchID  string
	JudgeID  string
	Blob     []byte
	SignedAt time.Time
}

// QuorumComplete reports whether every accepted judge has a signature on
// file. The accepted set is frozen once a match reaches ready, so
// completeness is monotonic.
func QuorumComplete(acceptedJudgeIDs []string, signatures []Signature) bool {
	if len(acceptedJudgeIDs) == 0 {
		return false
	}
	signed := make(map[string]struct{}, len(signatures))
	for _, s := range signatures {
		signed[s.JudgeID] = struct{}{}
	}
	for _, judgeID := range acceptedJudgeIDs {
		if _, ok := signed[judgeID]; !ok {
			return false
		}
	}
	return true
}

// MissingSigners lists accepted judges without a signature, in input order.
func MissingSigners(acceptedJudgeIDs []string, signatures []Signature) []string {
	signed := make(map[string]struct{}, len(signatures))
	for _, s := range signatures {
		signed[s.JudgeID] = struct{}{}
	}
	var missing []string
	for _, judgeID := range acceptedJudgeIDs {
		if _, ok := signed[judgeID]; !ok {
			missing = append(missing, judgeID)
		}
	}
	return missing
}
