package lien

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/deal-engine/internal/model"
	"github.com/sells-group/deal-engine/internal/policy"
)

func f64(v float64) *float64 { return &v }

func TestRiskLevelBanding(t *testing.T) {
	t.Parallel()
	pol := policy.Default()

	tests := []struct {
		name  string
		total float64
		want  string
	}{
		{"zero is low", 0, "low"},
		{"at low ceiling stays low", 2_500, "low"},
		{"just above low is medium", 2_500.01, "medium"},
		{"at medium ceiling stays medium", 5_000, "medium"},
		{"above medium is high", 7_000, "high"},
		{"at high ceiling stays high", 10_000, "high"},
		{"above high is critical", 10_000.01, "critical"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, _ := Calculate(Input{HOAArrears: &tt.total, HOAStatus: StatusVerified}, pol)
			assert.Equal(t, tt.want, out.RiskLevel)
		})
	}
}

func TestBlockingAtExactThreshold(t *testing.T) {
	t.Parallel()
	pol := policy.Default()

	// Exactly at the blocking total does not block; strictly greater does.
	out, _ := Calculate(Input{MunicipalLienAmount: f64(10_000)}, pol)
	assert.False(t, out.BlockingGateTriggered)
	assert.Equal(t, "high", out.RiskLevel)

	out, _ = Calculate(Input{MunicipalLienAmount: f64(10_000.01)}, pol)
	assert.True(t, out.BlockingGateTriggered)
	assert.Equal(t, "critical", out.RiskLevel)
}

func TestMalformedAmountsDegradeToZero(t *testing.T) {
	t.Parallel()

	out, _ := Calculate(Input{
		HOAArrears:          f64(math.NaN()),
		CDDArrears:          f64(math.Inf(1)),
		PropertyTaxArrears:  f64(-800),
		MunicipalLienAmount: nil,
	}, policy.Default())

	assert.Equal(t, 0.0, out.TotalSurvivingLiens)
	assert.Equal(t, "low", out.RiskLevel)
	assert.Equal(t, Breakdown{}, out.Breakdown)
	assert.Empty(t, out.JointLiabilityWarning)
}

func TestJointLiabilityWarning(t *testing.T) {
	t.Parallel()
	pol := policy.Default()

	out, _ := Calculate(Input{HOAArrears: f64(1_200)}, pol)
	assert.Contains(t, out.JointLiabilityWarning, "FL 720.3085")
	assert.Contains(t, out.JointLiabilityWarning, "jointly and severally liable")

	// Tax and municipal liens alone carry no HOA/CDD statute warning.
	out, _ = Calculate(Input{PropertyTaxArrears: f64(3_000)}, pol)
	assert.Empty(t, out.JointLiabilityWarning)
}

func TestEvidenceNeeded(t *testing.T) {
	t.Parallel()
	pol := policy.Default()

	out, _ := Calculate(Input{
		HOAStatus:            StatusVerified,
		CDDStatus:            StatusEstimated,
		PropertyTaxStatus:    "unknown",
		MunicipalStatus:      "",
		TitleSearchCompleted: false,
	}, pol)

	require.Len(t, out.EvidenceNeeded, 3)
	assert.Contains(t, out.EvidenceNeeded[0], "tax collector")
	assert.Contains(t, out.EvidenceNeeded[1], "Municipal lien search")
	assert.Contains(t, out.EvidenceNeeded[2], "title search")

	// Completed title search with all statuses verified yields no requests.
	out, _ = Calculate(Input{
		HOAStatus:            StatusVerified,
		CDDStatus:            StatusVerified,
		PropertyTaxStatus:    StatusVerified,
		MunicipalStatus:      StatusVerified,
		TitleSearchCompleted: true,
	}, pol)
	assert.Empty(t, out.EvidenceNeeded)
}

func TestNetClearanceAdjustment(t *testing.T) {
	t.Parallel()

	out, _ := Calculate(Input{HOAArrears: f64(2_000), CDDArrears: f64(500)}, policy.Default())
	assert.Equal(t, -2_500.0, out.NetClearanceAdjustment)

	// Zero total must serialize as 0, never -0.
	out, _ = Calculate(Input{}, policy.Default())
	assert.False(t, math.Signbit(out.NetClearanceAdjustment))
}

func TestCalculateDeterministic(t *testing.T) {
	t.Parallel()

	in := Input{
		HOAArrears:         f64(1_500),
		PropertyTaxArrears: f64(4_200),
		HOAStatus:          StatusEstimated,
	}
	pol := policy.Default()

	out1, tr1 := Calculate(in, pol)
	out2, tr2 := Calculate(in, pol)

	j1, err := json.Marshal(struct {
		O Output           `json:"o"`
		T model.TraceEntry `json:"t"`
	}{out1, tr1})
	require.NoError(t, err)
	j2, err := json.Marshal(struct {
		O Output           `json:"o"`
		T model.TraceEntry `json:"t"`
	}{out2, tr2})
	require.NoError(t, err)

	assert.Equal(t, string(j1), string(j2))
	assert.Equal(t, model.RuleLienRisk, tr1.Rule)
}

func TestCalculateDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := Input{
		HOAArrears:          f64(-250),
		CDDArrears:          f64(math.NaN()),
		PropertyTaxArrears:  f64(1_200),
		MunicipalLienAmount: f64(math.Inf(1)),
		HOAStatus:           StatusUnknown,
		CDDStatus:           StatusEstimated,
	}
	before := in

	_, _ = Calculate(in, policy.Default())

	// Pointer targets survive sanitization untouched.
	assert.Same(t, before.HOAArrears, in.HOAArrears)
	assert.Equal(t, -250.0, *in.HOAArrears)
	assert.True(t, math.IsNaN(*in.CDDArrears))
	assert.Equal(t, 1_200.0, *in.PropertyTaxArrears)
	assert.True(t, math.IsInf(*in.MunicipalLienAmount, 1))
	assert.Equal(t, before.HOAStatus, in.HOAStatus)
	assert.Equal(t, before.CDDStatus, in.CDDStatus)
}
