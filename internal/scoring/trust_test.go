package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestCalculateInitialTrust(t *testing.T) {
	t.Run("risk level moves the base", func(t *testing.T) {
		attrs := SubmissionAttributes{Email: "x@y"}
		assert.Equal(t, 65, CalculateInitialTrust(attrs, RiskAssessment{Level: RiskLow}))
		assert.Equal(t, 55, CalculateInitialTrust(attrs, RiskAssessment{Level: RiskMedium}))
		assert.Equal(t, 40, CalculateInitialTrust(attrs, RiskAssessment{Level: RiskHigh}))
	})

	t.Run("legacy license and MFA add up and clamp", func(t *testing.T) {
		attrs := janeSmith()
		attrs.License = true
		attrs.MFAVerified = true
		assert.Equal(t, 100, CalculateInitialTrust(attrs, CalculateRiskScore(attrs)))
	})
}

func TestTrustDelta(t *testing.T) {
	now := evalTime

	t.Run("defaults per action", func(t *testing.T) {
		cases := map[Action]int{
			ActionAdminApproval:       10,
			ActionAdminDenial:         -20,
			ActionPositiveInteraction: 5,
			ActionNegativeInteraction: -10,
		}
		for action, want := range cases {
			got, err := TrustDelta(action, nil, nil, now)
			require.NoError(t, err)
			assert.Equal(t, want, got, action)
		}
	})

	t.Run("explicit value overrides the default magnitude", func(t *testing.T) {
		got, err := TrustDelta(ActionAdminDenial, intPtr(3), nil, now)
		require.NoError(t, err)
		assert.Equal(t, -3, got)
	})

	t.Run("oversized value saturates", func(t *testing.T) {
		got, err := TrustDelta(ActionAdminApproval, intPtr(math.MaxInt), nil, now)
		require.NoError(t, err)
		assert.Equal(t, MaxAdjustment, got)

		got, err = TrustDelta(ActionNegativeInteraction, intPtr(math.MaxInt), nil, now)
		require.NoError(t, err)
		assert.Equal(t, -MaxAdjustment, got)
	})

	t.Run("negative value is rejected", func(t *testing.T) {
		_, err := TrustDelta(ActionAdminApproval, intPtr(-1), nil, now)
		assert.Error(t, err)
	})

	t.Run("unknown action is rejected", func(t *testing.T) {
		_, err := TrustDelta(Action("bribe"), nil, nil, now)
		assert.Error(t, err)
		_, err = ParseAction("bribe")
		assert.Error(t, err)
	})

	t.Run("time based rewards account age", func(t *testing.T) {
		recent := now.Add(-10 * 24 * time.Hour)
		month := now.Add(-31 * 24 * time.Hour)
		quarter := now.Add(-91 * 24 * time.Hour)

		for verifiedAt, want := range map[*time.Time]int{nil: 0, &recent: 0, &month: 2, &quarter: 5} {
			got, err := TrustDelta(ActionTimeBased, intPtr(50), verifiedAt, now)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})
}

func TestApplyTrustDeltaClamps(t *testing.T) {
	up, _ := TrustDelta(ActionAdminApproval, nil, nil, evalTime)
	down, _ := TrustDelta(ActionAdminDenial, nil, nil, evalTime)

	assert.Equal(t, 100, ApplyTrustDelta(95, up))
	assert.Equal(t, 0, ApplyTrustDelta(5, down))
	assert.Equal(t, 60, ApplyTrustDelta(50, up))

	huge, err := TrustDelta(ActionAdminApproval, intPtr(math.MaxInt), nil, evalTime)
	require.NoError(t, err)
	assert.Equal(t, 100, ApplyTrustDelta(50, huge))
	assert.Equal(t, 100, ApplyTrustDelta(50, math.MaxInt))
	assert.Equal(t, 0, ApplyTrustDelta(50, math.MinInt))
}

func TestTiers(t *testing.T) {
	assert.Equal(t, Tier5, TierFor(90))
	assert.Equal(t, Tier4, TierFor(89))
	assert.Equal(t, Tier4, TierFor(75))
	assert.Equal(t, Tier3, TierFor(60))
	assert.Equal(t, Tier2, TierFor(40))
	assert.Equal(t, Tier1, TierFor(39))

	assert.False(t, PermissionsFor(Tier1).Messaging)
	assert.True(t, PermissionsFor(Tier5).APIAccess)
	assert.Equal(t, PermissionsFor(Tier1), PermissionsFor(Tier(42)))
	assert.Len(t, Tiers(), 5)
}
