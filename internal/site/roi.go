package site

import (
	"fmt"
	"math"
)

// AutomationShare is the fraction of RFQ handling time rfqpilot removes.
const AutomationShare = 0.7

// Plan is a subscription tier.
type Plan struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Monthly float64 `json:"monthly"`
	Setup   float64 `json:"setup"`
	RFQs    int     `json:"rfqs"` // per month, 0 = unlimited
	Pitch   string  `json:"pitch"`
}

// Plans are listed on the pricing page, cheapest first.
var Plans = []Plan{
	{ID: "starter", Name: "Starter", Monthly: 49, RFQs: 20, Pitch: "For a single buyer getting started."},
	{ID: "team", Name: "Team", Monthly: 199, Setup: 500, RFQs: 200, Pitch: "Shared supplier directory and PO generation."},
	{ID: "enterprise", Name: "Enterprise", Monthly: 799, Setup: 2500, Pitch: "SSO, S3 archiving and dedicated onboarding."},
}

// PlanByID finds a plan.
func PlanByID(id string) (Plan, bool) {
	for _, p := range Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// ROIInput describes the buyer's current monthly RFQ workload.
type ROIInput struct {
	RFQsPerMonth float64 `json:"rfqs"`
	HoursPerRFQ  float64 `json:"hours"`
	HourlyRate   float64 `json:"rate"`
	Plan         string  `json:"plan"`
}

// ROIResult is the monthly return of a plan.
type ROIResult struct {
	Plan          Plan    `json:"plan"`
	HoursSaved    float64 `json:"hours_saved"`
	Savings       float64 `json:"savings"`
	Net           float64 `json:"net"`
	PaybackMonths float64 `json:"payback_months"`
	PaysBack      bool    `json:"pays_back"`
}

// ROI estimates monthly savings. Payback is the setup fee divided by the net
// monthly gain; a plan whose fee exceeds the savings never pays back.
func ROI(in ROIInput) (ROIResult, error) {
	for _, v := range []float64{in.RFQsPerMonth, in.HoursPerRFQ, in.HourlyRate} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ROIResult{}, fmt.Errorf("inputs must be finite numbers")
		}
	}
	if in.RFQsPerMonth < 0 || in.HoursPerRFQ < 0 || in.HourlyRate < 0 {
		return ROIResult{}, fmt.Errorf("inputs must not be negative")
	}
	if in.Plan == "" {
		in.Plan = Plans[0].ID
	}
	plan, ok := PlanByID(in.Plan)
	if !ok {
		return ROIResult{}, fmt.Errorf("unknown plan %q", in.Plan)
	}

	hours := in.RFQsPerMonth * in.HoursPerRFQ * AutomationShare
	savings := hours * in.HourlyRate
	if math.IsInf(savings, 0) {
		return ROIResult{}, fmt.Errorf("inputs are too large")
	}
	res := ROIResult{
		Plan:       plan,
		HoursSaved: round2(hours),
		Savings:    round2(savings),
		Net:        round2(savings - plan.Monthly),
	}
	if res.Net > 0 {
		res.PaysBack = true
		res.PaybackMonths = round2(plan.Setup / res.Net)
	}
	return res, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
