package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantegy/tradepulse/internal/domain"
)

func TestComputeModifier_NoDriftIsNeutral(t *testing.T) {
	total := TotalScore{Total: 40, Side: domain.SideLong}

	result := ComputeModifier(total, nil, DefaultModifierConfig())

	assert.Equal(t, 0, result.Modifier)
	assert.False(t, result.EntryBlocked)
}

func TestComputeModifier_AlignedSideUnaffected(t *testing.T) {
	total := TotalScore{Total: 40, Side: domain.SideLong}
	drift := domain.DriftPtr(domain.DriftUp)

	result := ComputeModifier(total, drift, DefaultModifierConfig())

	assert.False(t, result.EntryBlocked)
	assert.Equal(t, 0, result.Modifier)
}

// The hard block must refuse counter-drift entries no matter how strong the
// fused score is.
func TestComputeModifier_HardBlockIgnoresScoreMagnitude(t *testing.T) {
	total := TotalScore{Total: 100, Side: domain.SideLong, Confidence: 100}
	drift := domain.DriftPtr(domain.DriftDown)

	result := ComputeModifier(total, drift, DefaultModifierConfig())

	assert.True(t, result.EntryBlocked)
	assert.Contains(t, result.BlockReason, "DRIFT_DOWN")
}

func TestComputeModifier_ShortAgainstDriftUpBlocked(t *testing.T) {
	total := TotalScore{Total: -30, Side: domain.SideShort}
	drift := domain.DriftPtr(domain.DriftUp)

	result := ComputeModifier(total, drift, DefaultModifierConfig())
	assert.True(t, result.EntryBlocked)
}

func TestComputeModifier_SoftPenaltyWhenBlockDisabled(t *testing.T) {
	cfg := ModifierConfig{DriftHardBlock: false, DriftPenalty: 20}
	total := TotalScore{Total: 40, Side: domain.SideLong}
	drift := domain.DriftPtr(domain.DriftDown)

	result := ComputeModifier(total, drift, cfg)

	assert.False(t, result.EntryBlocked)
	assert.Equal(t, -20, result.Modifier)
}
