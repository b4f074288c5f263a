package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSlipFixture(t *testing.T) (SlipService, *fakeSlipRepo, *fakeResultRepo, uuid.UUID) {
	t.Helper()
	slips := newFakeSlipRepo()
	results := &fakeResultRepo{}
	rates := NewRateService(newFakeRateTableRepo(federalTable2025()), RateServiceConfig{})
	svc := NewSlipService(slips, results, rates, fakeTxManager{})

	employeeID := uuid.New()
	rows := []model.PayRunResult{
		{
			EmployeeID: employeeID, TaxYear: 2025, Jurisdiction: model.JurisdictionON,
			PayDate:  time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
			GrossPay: dec("2000.00"), CPP: dec("110.99"), EI: dec("32.80"),
			FederalTax: dec("185.38"), ProvincialTax: dec("68.98"),
			PensionableEarnings: dec("2000.00"), InsurableEarnings: dec("2000.00"),
		},
		{
			EmployeeID: employeeID, TaxYear: 2025, Jurisdiction: model.JurisdictionON,
			PayDate:  time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC),
			GrossPay: dec("2000.00"), CPP: dec("110.99"), EI: dec("32.80"),
			FederalTax: dec("185.38"), ProvincialTax: dec("68.98"),
			PensionableEarnings: dec("2000.00"), InsurableEarnings: dec("2000.00"),
		},
		// A different tax year must stay out of the slip.
		{
			EmployeeID: employeeID, TaxYear: 2024, Jurisdiction: model.JurisdictionON,
			PayDate:  time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC),
			GrossPay: dec("5000.00"), CPP: dec("250.00"), EI: dec("80.00"),
			FederalTax: dec("700.00"), ProvincialTax: dec("250.00"),
			PensionableEarnings: dec("5000.00"), InsurableEarnings: dec("5000.00"),
		},
	}
	require.NoError(t, results.CreateBatch(context.Background(), rows))

	return svc, slips, results, employeeID
}

func TestSlipBuildT4(t *testing.T) {
	svc, _, _, employeeID := newSlipFixture(t)

	slip, err := svc.Build(context.Background(), employeeID.String(), 2025, model.SlipTypeT4)
	require.NoError(t, err)

	assert.Equal(t, model.SlipStatusDraft, slip.Status)
	assert.Equal(t, "4000.00", slip.EmploymentIncome.StringFixed(2))
	assert.Equal(t, "221.98", slip.CPPContributions.StringFixed(2))
	assert.Equal(t, "4000.00", slip.CPPPensionableEarnings.StringFixed(2))
	assert.Equal(t, "65.60", slip.EIPremiums.StringFixed(2))
	assert.Equal(t, "4000.00", slip.EIInsurableEarnings.StringFixed(2))
	assert.Equal(t, "508.72", slip.IncomeTaxDeducted.StringFixed(2))
	assert.True(t, slip.FeesForServices.IsZero())
	assert.Nil(t, slip.AmendsSlipID)
}

func TestSlipBuildT4AReportsFeesForServices(t *testing.T) {
	svc, _, _, employeeID := newSlipFixture(t)

	slip, err := svc.Build(context.Background(), employeeID.String(), 2025, model.SlipTypeT4A)
	require.NoError(t, err)

	assert.Equal(t, "4000.00", slip.FeesForServices.StringFixed(2))
	assert.True(t, slip.EmploymentIncome.IsZero())
	assert.Equal(t, "4000.00", slip.IncomeAmount().StringFixed(2))
}

func TestSlipBuildRejectsBadInput(t *testing.T) {
	svc, _, _, employeeID := newSlipFixture(t)

	_, err := svc.Build(context.Background(), "nope", 2025, model.SlipTypeT4)
	assert.ErrorContains(t, err, "invalid employee id")

	_, err = svc.Build(context.Background(), employeeID.String(), 2025, "T5")
	assert.ErrorContains(t, err, "unknown slip type")
}

func TestSlipLifecycle(t *testing.T) {
	svc, _, _, employeeID := newSlipFixture(t)

	slip, err := svc.Build(context.Background(), employeeID.String(), 2025, model.SlipTypeT4)
	require.NoError(t, err)

	// DRAFT cannot be issued directly.
	_, err = svc.Issue(context.Background(), slip.ID.String())
	assert.ErrorContains(t, err, "cannot move")

	finalized, err := svc.Finalize(context.Background(), slip.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.SlipStatusFinalized, finalized.Status)
	assert.NotNil(t, finalized.FinalizedAt)

	// Finalizing twice is illegal.
	_, err = svc.Finalize(context.Background(), slip.ID.String())
	assert.ErrorContains(t, err, "cannot move")

	issued, err := svc.Issue(context.Background(), slip.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.SlipStatusIssued, issued.Status)
	assert.NotNil(t, issued.IssuedAt)
}

func TestSlipFinalizeCollectsAllViolations(t *testing.T) {
	svc, slips, _, employeeID := newSlipFixture(t)

	slip, err := svc.Build(context.Background(), employeeID.String(), 2025, model.SlipTypeT4)
	require.NoError(t, err)

	// Corrupt the draft so every gate trips at once: CPP and EI above the
	// statutory ceilings and no income.
	stored, err := slips.FindByID(context.Background(), slip.ID)
	require.NoError(t, err)
	stored.CPPContributions = dec("9999.00")
	stored.EIPremiums = dec("9999.00")
	stored.EmploymentIncome = dec("0")
	require.NoError(t, slips.Update(context.Background(), stored))

	_, err = svc.Finalize(context.Background(), slip.ID.String())

	var validation *SlipValidationError
	require.ErrorAs(t, err, &validation)
	assert.Len(t, validation.Violations, 3)
	assert.True(t, validation.Has(ViolationCPPOverMax))
	assert.True(t, validation.Has(ViolationEIOverMax))
	assert.True(t, validation.Has(ViolationNoIncome))

	// A failed gate leaves the slip in DRAFT.
	after, err := svc.GetSlip(context.Background(), slip.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.SlipStatusDraft, after.Status)
}

func TestSlipFinalizeCPPOneCentOverMax(t *testing.T) {
	svc, slips, _, employeeID := newSlipFixture(t)

	slip, err := svc.Build(context.Background(), employeeID.String(), 2025, model.SlipTypeT4)
	require.NoError(t, err)

	// 2025 employee CPP ceiling is 71300 * 0.0595 = 4242.35.
	stored, err := slips.FindByID(context.Background(), slip.ID)
	require.NoError(t, err)
	stored.CPPContributions = dec("4242.36")
	require.NoError(t, slips.Update(context.Background(), stored))

	_, err = svc.Finalize(context.Background(), slip.ID.String())

	var validation *SlipValidationError
	require.ErrorAs(t, err, &validation)
	require.Len(t, validation.Violations, 1)
	assert.True(t, validation.Has(ViolationCPPOverMax))
	assert.Contains(t, validation.Violations[0].Message, "4242.35")
}

func TestSlipFinalizeAtExactMaxPasses(t *testing.T) {
	svc, slips, _, employeeID := newSlipFixture(t)

	slip, err := svc.Build(context.Background(), employeeID.String(), 2025, model.SlipTypeT4)
	require.NoError(t, err)

	stored, err := slips.FindByID(context.Background(), slip.ID)
	require.NoError(t, err)
	stored.CPPContributions = dec("4242.35")
	stored.EIPremiums = dec("1077.48") // 65700 * 0.0164
	require.NoError(t, slips.Update(context.Background(), stored))

	finalized, err := svc.Finalize(context.Background(), slip.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.SlipStatusFinalized, finalized.Status)
}

func TestSlipAmendCreatesLinkedDraft(t *testing.T) {
	svc, _, _, employeeID := newSlipFixture(t)

	slip, err := svc.Build(context.Background(), employeeID.String(), 2025, model.SlipTypeT4)
	require.NoError(t, err)
	_, err = svc.Finalize(context.Background(), slip.ID.String())
	require.NoError(t, err)
	_, err = svc.Issue(context.Background(), slip.ID.String())
	require.NoError(t, err)

	amendment, err := svc.Amend(context.Background(), slip.ID.String())
	require.NoError(t, err)

	assert.NotEqual(t, slip.ID, amendment.ID)
	require.NotNil(t, amendment.AmendsSlipID)
	assert.Equal(t, slip.ID, *amendment.AmendsSlipID)
	assert.Equal(t, model.SlipStatusDraft, amendment.Status)
	assert.Equal(t, slip.EmploymentIncome.StringFixed(2), amendment.EmploymentIncome.StringFixed(2))
	assert.Equal(t, slip.CPPContributions.StringFixed(2), amendment.CPPContributions.StringFixed(2))

	original, err := svc.GetSlip(context.Background(), slip.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.SlipStatusAmended, original.Status)
	assert.NotNil(t, original.AmendedAt)
	assert.Equal(t, "4000.00", original.EmploymentIncome.StringFixed(2), "original box values stay intact")
	assert.Equal(t, "221.98", original.CPPContributions.StringFixed(2))

	// AMENDED is terminal for the original.
	_, err = svc.Amend(context.Background(), slip.ID.String())
	assert.ErrorContains(t, err, "only issued slips may be amended")
}

func TestSlipAmendRequiresIssuedStatus(t *testing.T) {
	svc, _, _, employeeID := newSlipFixture(t)

	slip, err := svc.Build(context.Background(), employeeID.String(), 2025, model.SlipTypeT4)
	require.NoError(t, err)

	_, err = svc.Amend(context.Background(), slip.ID.String())
	assert.ErrorContains(t, err, "only issued slips may be amended")
}
