package fees_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/attest/internal/definitions"
	"github.com/JaimeStill/attest/internal/fees"
)

func dest(address string, amount uint64, name string) definitions.FeeDestination {
	d := definitions.FeeDestination{Address: address, Amount: amount}
	if name != "" {
		d.Entity = &definitions.EntityDetail{Name: name}
	}
	return d
}

func TestBuildPlan(t *testing.T) {
	v := definitions.Verifier{
		Address: "tp1verifier",
		Entity:  &definitions.EntityDetail{Name: "Figure"},
	}
	s := definitions.CostSchedule{
		Total: 400,
		FeeDestinations: []definitions.FeeDestination{
			dest("tp1a", 20, "Alpha"),
			dest("tp1b", 20, ""),
			dest("tp1c", 40, "Gamma"),
			dest("tp1d", 5, ""),
			dest("tp1e", 15, "Epsilon"),
		},
	}

	plan, err := fees.BuildPlan("scope1xyz", "heloc", v, s)
	require.NoError(t, err)

	require.Len(t, plan.Payments, 6)
	assert.Equal(t, uint64(200), plan.Total())

	last := plan.Payments[5]
	assert.Equal(t, uint64(100), last.Amount)
	assert.Equal(t, "tp1verifier", last.Recipient)
	assert.Equal(t, "Figure Verifier Fee", last.Label)
	assert.Equal(t, fees.RecipientVerifier, last.Kind)

	for i, want := range []uint64{20, 20, 40, 5, 15} {
		assert.Equal(t, want, plan.Payments[i].Amount)
		assert.Equal(t, fees.RecipientFee, plan.Payments[i].Kind)
	}
	assert.Equal(t, "Fee for Alpha", plan.Payments[0].Label)
	assert.Equal(t, "Fee for tp1b", plan.Payments[1].Label)
	assert.Equal(t, "scope1xyz", plan.SubjectID)
	assert.Equal(t, "heloc", plan.TypeName)
}

func TestBuildPlanMisconfigured(t *testing.T) {
	s := definitions.CostSchedule{
		Total:           200,
		FeeDestinations: []definitions.FeeDestination{dest("tp1a", 101, "")},
	}

	_, err := fees.BuildPlan("scope1xyz", "heloc", definitions.Verifier{Address: "tp1v"}, s)
	require.ErrorIs(t, err, fees.ErrMisconfiguredFees)

	status, ok := fees.MapHTTPStatus(err)
	assert.True(t, ok)
	assert.Equal(t, 422, status)
}

func TestBuildPlanFeeOverflow(t *testing.T) {
	s := definitions.CostSchedule{
		Total: 200,
		FeeDestinations: []definitions.FeeDestination{
			dest("tp1a", math.MaxUint64, ""),
			dest("tp1b", 2, ""),
		},
	}

	_, ok := s.FeeTotal()
	assert.False(t, ok)

	plan, err := fees.BuildPlan("scope1xyz", "heloc", definitions.Verifier{Address: "tp1v"}, s)
	require.ErrorIs(t, err, fees.ErrMisconfiguredFees)
	assert.Empty(t, plan.Payments)
}

func TestBuildPlanSums(t *testing.T) {
	tests := []struct {
		name     string
		schedule definitions.CostSchedule
		payments int
		verifier string
	}{
		{
			name:     "no fees",
			schedule: definitions.CostSchedule{Total: 100},
			payments: 1,
			verifier: "Verifier Fee",
		},
		{
			name: "fees consume the half",
			schedule: definitions.CostSchedule{
				Total:           100,
				FeeDestinations: []definitions.FeeDestination{dest("tp1a", 50, "")},
			},
			payments: 1,
		},
		{
			name:     "zero cost",
			schedule: definitions.CostSchedule{Total: 0},
			payments: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := fees.BuildPlan("s", "t", definitions.Verifier{Address: "tp1v"}, tt.schedule)
			require.NoError(t, err)

			assert.Len(t, plan.Payments, tt.payments)
			assert.Equal(t, tt.schedule.Total/2, plan.Total())

			if tt.verifier != "" {
				assert.Equal(t, tt.verifier, plan.Payments[len(plan.Payments)-1].Label)
			}
			for _, p := range plan.Payments {
				if p.Kind == fees.RecipientVerifier {
					assert.NotZero(t, p.Amount)
				}
			}
		})
	}
}

func TestSelectSchedule(t *testing.T) {
	def := definitions.CostSchedule{Total: 100}
	retry := definitions.CostSchedule{Total: 50}
	subsequent := definitions.CostSchedule{Total: 20}

	base := definitions.Verifier{
		Address:     "tp1v",
		DefaultCost: def,
		RetryCost:   &retry,
		SubsequentCost: &definitions.SubsequentCost{
			Cost: &subsequent,
		},
	}

	restricted := base
	restricted.SubsequentCost = &definitions.SubsequentCost{
		Cost:              &subsequent,
		AllowedPriorTypes: []string{"mortgage"},
	}

	noRetry := base
	noRetry.RetryCost = nil

	tests := []struct {
		name    string
		v       definitions.Verifier
		isRetry bool
		prior   []fees.Prior
		want    uint64
	}{
		{"retry uses retry cost", base, true, nil, 50},
		{"retry takes precedence over subsequent", base, true, []fees.Prior{{"mortgage", "tp1v"}}, 50},
		{"retry without retry cost", noRetry, true, nil, 100},
		{"first classification", base, false, nil, 100},
		{"prior by same verifier", base, false, []fees.Prior{{"mortgage", "tp1v"}}, 20},
		{"prior by other verifier", base, false, []fees.Prior{{"mortgage", "tp1w"}}, 100},
		{"prior of same type ignored", base, false, []fees.Prior{{"heloc", "tp1v"}}, 100},
		{"allowed prior type", restricted, false, []fees.Prior{{"mortgage", "tp1v"}}, 20},
		{"disallowed prior type", restricted, false, []fees.Prior{{"auto", "tp1v"}}, 100},
		{"any allowed among several", restricted, false, []fees.Prior{{"auto", "tp1v"}, {"mortgage", "tp1v"}}, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fees.SelectSchedule(tt.v, tt.isRetry, "heloc", tt.prior)
			assert.Equal(t, tt.want, got.Total)
		})
	}
}

func TestSelectScheduleWithoutSubsequentCost(t *testing.T) {
	v := definitions.Verifier{
		Address:     "tp1v",
		DefaultCost: definitions.CostSchedule{Total: 100},
		SubsequentCost: &definitions.SubsequentCost{
			AllowedPriorTypes: []string{"mortgage"},
		},
	}

	got := fees.SelectSchedule(v, false, "heloc", []fees.Prior{{TypeName: "mortgage", VerifierAddress: "tp1v"}})
	assert.Equal(t, uint64(100), got.Total)
}
