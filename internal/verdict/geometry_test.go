package verdict

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/deal-engine/internal/model"
	"github.com/sells-group/deal-engine/internal/policy"
)

func f64(v float64) *float64 { return &v }

func TestComputeGeometryFullInputs(t *testing.T) {
	t.Parallel()

	// ARV 200k * 0.70 = 140k; AIV 180k * 0.85 = 153k; ceiling = 140k.
	// Floor = 100k * 1.0 + 650*3 = 101,950. Spread = 38,050.
	g, tr := ComputeGeometry(PriceInput{
		ARV:    f64(200_000),
		AIV:    f64(180_000),
		Payoff: f64(100_000),
	}, 0, policy.Default())

	assert.True(t, g.Computable)
	assert.Equal(t, 140_000.0, g.BuyerCeiling)
	assert.Equal(t, 101_950.0, g.RespectFloor)
	assert.Equal(t, 38_050.0, g.SpreadCash)
	assert.Equal(t, CashGatePass, g.CashGateStatus)
	assert.True(t, g.ZOPAExists)
	assert.False(t, g.BorderlineFlag)
	assert.Equal(t, model.RulePriceGeometry, tr.Rule)
}

func TestComputeGeometrySingleAnchor(t *testing.T) {
	t.Parallel()
	pol := policy.Default()

	// ARV only.
	g, _ := ComputeGeometry(PriceInput{ARV: f64(200_000), Payoff: f64(100_000)}, 0, pol)
	assert.Equal(t, 140_000.0, g.BuyerCeiling)
	assert.True(t, g.Computable)

	// AIV only.
	g, _ = ComputeGeometry(PriceInput{AIV: f64(180_000), Payoff: f64(100_000)}, 0, pol)
	assert.Equal(t, 153_000.0, g.BuyerCeiling)
	assert.True(t, g.Computable)
}

func TestComputeGeometryMissingInputs(t *testing.T) {
	t.Parallel()
	pol := policy.Default()

	g, _ := ComputeGeometry(PriceInput{Payoff: f64(100_000)}, 0, pol)
	assert.False(t, g.Computable)
	assert.Equal(t, CashGateUnknown, g.CashGateStatus)
	assert.Len(t, g.MissingInputs, 1)
	assert.Contains(t, g.MissingInputs[0], "ARV or AIV")

	g, _ = ComputeGeometry(PriceInput{ARV: f64(200_000)}, 0, pol)
	assert.False(t, g.Computable)
	assert.Contains(t, g.MissingInputs[0], "payoff")

	g, _ = ComputeGeometry(PriceInput{}, 0, pol)
	assert.Len(t, g.MissingInputs, 2)
}

func TestCashGateBanding(t *testing.T) {
	t.Parallel()
	pol := policy.Default()

	tests := []struct {
		name           string
		payoff         float64
		wantStatus     string
		wantBorderline bool
	}{
		// Ceiling is fixed at 140k; min spread 10k, borderline floor 7.5k.
		{"comfortably above minimum", 100_000, CashGatePass, false},
		{"exactly at minimum passes", 128_050, CashGatePass, false},
		{"inside borderline band", 130_000, CashGateBorderline, true},
		{"exactly at borderline floor", 130_550, CashGateBorderline, true},
		{"below borderline fails", 135_000, CashGateFail, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g, _ := ComputeGeometry(PriceInput{ARV: f64(200_000), Payoff: &tt.payoff}, 0, pol)
			assert.Equal(t, tt.wantStatus, g.CashGateStatus)
			assert.Equal(t, tt.wantBorderline, g.BorderlineFlag)
		})
	}
}

func TestNetClearanceReducesSpread(t *testing.T) {
	t.Parallel()

	pol := policy.Default()
	base, _ := ComputeGeometry(PriceInput{ARV: f64(200_000), Payoff: f64(100_000)}, 0, pol)
	adj, _ := ComputeGeometry(PriceInput{ARV: f64(200_000), Payoff: f64(100_000)}, -6_000, pol)

	assert.Equal(t, base.SpreadCash-6_000, adj.SpreadCash)
}

func TestNoZOPA(t *testing.T) {
	t.Parallel()

	// Payoff far above ceiling: spread is negative.
	g, _ := ComputeGeometry(PriceInput{ARV: f64(200_000), Payoff: f64(180_000)}, 0, policy.Default())

	assert.True(t, g.Computable)
	assert.False(t, g.ZOPAExists)
	assert.Equal(t, CashGateFail, g.CashGateStatus)
}
