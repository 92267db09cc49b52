package moderation

import (
	"fmt"

	"github.com/spigell/talentscore/internal/profile"
)

// Default recommendation thresholds.
const (
	DefaultFlagAbove   = 30
	DefaultRejectAbove = 55
)

// Thresholds map a risk score onto a recommendation: above RejectAbove is
// rejected, above FlagAbove is flagged, the rest is approved.
type Thresholds struct {
	FlagAbove   int `mapstructure:"flag-above"`
	RejectAbove int `mapstructure:"reject-above"`
}

// DefaultThresholds returns the 30/55 split.
func DefaultThresholds() Thresholds {
	return Thresholds{FlagAbove: DefaultFlagAbove, RejectAbove: DefaultRejectAbove}
}

// Validate rejects bands that overlap or fall outside [0,100].
func (t Thresholds) Validate() error {
	if t.FlagAbove < 0 || t.RejectAbove > 100 {
		return fmt.Errorf("thresholds must be within [0,100], got flag-above=%d reject-above=%d", t.FlagAbove, t.RejectAbove)
	}
	if t.FlagAbove >= t.RejectAbove {
		return fmt.Errorf("flag-above (%d) must be lower than reject-above (%d)", t.FlagAbove, t.RejectAbove)
	}
	return nil
}

// Recommend maps a clamped risk score onto a verdict.
func (t Thresholds) Recommend(score int) profile.Recommendation {
	switch {
	case score > t.RejectAbove:
		return profile.RecommendReject
	case score > t.FlagAbove:
		return profile.RecommendFlag
	default:
		return profile.RecommendApprove
	}
}
