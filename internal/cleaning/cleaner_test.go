package cleaning

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

var day0 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func sale(day int, amount float64) domain.Transaction {
	return domain.Transaction{
		Timestamp:  day0.AddDate(0, 0, day),
		Amount:     amount,
		Quantity:   1,
		ProductID:  "SKU-1",
		CustomerID: "C-1",
		OrderID:    fmt.Sprintf("INV-%03d", day),
	}
}

// scenarioRows is 86 regular sales plus two duplicates, one negative amount
// and one extreme amount.
func scenarioRows() []domain.Transaction {
	rows := make([]domain.Transaction, 0, 90)
	for i := 0; i < 86; i++ {
		rows = append(rows, sale(i, 100+float64(i%5)*2))
	}
	rows = append(rows, rows[0], rows[1])
	rows = append(rows, sale(100, -5))
	rows = append(rows, sale(101, 10000))
	return rows
}

func TestClean_Scenario(t *testing.T) {
	c := NewCleaner(DefaultOptions(), nil)

	cleaned, audit, err := c.Clean(context.Background(), scenarioRows())
	require.NoError(t, err)

	assert.Len(t, cleaned, 86)
	assert.Equal(t, 90, audit.InputRows)
	assert.Equal(t, 86, audit.OutputRows)
	assert.Equal(t, 1, audit.Dropped[domain.DropInvalidAmount])
	assert.Equal(t, 2, audit.Dropped[domain.DropDuplicate])
	assert.Equal(t, 1, audit.Dropped[domain.DropOutlier])
	assert.Equal(t, 0, audit.Dropped[domain.DropInvalidTimestamp])
	assert.True(t, audit.Balanced())

	require.NotNil(t, audit.OutlierBounds)
	assert.Equal(t, domain.OutlierFilterApplied, audit.OutlierFiltering)
	assert.InDelta(t, 102, audit.OutlierBounds.Q1, 1e-9)
	assert.InDelta(t, 106, audit.OutlierBounds.Q3, 1e-9)
	assert.InDelta(t, 96, audit.OutlierBounds.Lower, 1e-9)
	assert.InDelta(t, 112, audit.OutlierBounds.Upper, 1e-9)
	assert.Equal(t, 2, audit.OutlierBounds.Passes)
}

func TestClean_OutlierPasses(t *testing.T) {
	skewed := func() []domain.Transaction {
		var rows []domain.Transaction
		for i := 0; i < 10; i++ {
			rows = append(rows, sale(i, 100+float64(i)))
		}
		return append(rows, sale(10, 116), sale(11, 1000), sale(12, 1000))
	}
	outlierSteps := func(a domain.CleaningAudit) []domain.AuditStep {
		var out []domain.AuditStep
		for _, s := range a.Steps {
			if strings.HasPrefix(s.Step, "outlier_pass_") {
				out = append(out, s)
			}
		}
		return out
	}

	tests := []struct {
		name      string
		maxPasses int
		kept      int
		upper     float64
		steps     []domain.AuditStep
	}{
		{
			name:  "until stable",
			kept:  10,
			upper: 113.5,
			steps: []domain.AuditStep{
				{Step: "outlier_pass_1", Removed: 2, Remaining: 11},
				{Step: "outlier_pass_2", Removed: 1, Remaining: 10},
				{Step: "outlier_pass_3", Removed: 0, Remaining: 10},
			},
		},
		{
			name:      "single pass",
			maxPasses: 1,
			kept:      11,
			upper:     118,
			steps:     []domain.AuditStep{{Step: "outlier_pass_1", Removed: 2, Remaining: 11}},
		},
		{
			name:      "cap above convergence",
			maxPasses: 5,
			kept:      10,
			upper:     113.5,
			steps: []domain.AuditStep{
				{Step: "outlier_pass_1", Removed: 2, Remaining: 11},
				{Step: "outlier_pass_2", Removed: 1, Remaining: 10},
				{Step: "outlier_pass_3", Removed: 0, Remaining: 10},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.MaxOutlierPasses = tt.maxPasses

			cleaned, audit, err := NewCleaner(opts, nil).Clean(context.Background(), skewed())
			require.NoError(t, err)

			assert.Len(t, cleaned, tt.kept)
			assert.Equal(t, 13-tt.kept, audit.Dropped[domain.DropOutlier])
			assert.True(t, audit.Balanced())
			assert.Equal(t, tt.steps, outlierSteps(audit))
			require.NotNil(t, audit.OutlierBounds)
			assert.InDelta(t, tt.upper, audit.OutlierBounds.Upper, 1e-9)
			assert.Equal(t, len(tt.steps), audit.OutlierBounds.Passes)
		})
	}
}

func TestClean_RuleOrderCountsFirstViolation(t *testing.T) {
	noTime := sale(0, -10)
	noTime.Missing = noTime.Missing.With(domain.FieldTimestamp)
	noTime.Timestamp = time.Time{}

	cancelledNegative := sale(1, -3)
	cancelledNegative.OrderID = "C900"

	cancelled := sale(2, 50)
	cancelled.OrderID = "c901"

	c := NewCleaner(Options{DropCancelled: true}, nil)
	cleaned, audit, err := c.Clean(context.Background(), []domain.Transaction{noTime, cancelledNegative, cancelled, sale(3, 10)})
	require.NoError(t, err)

	assert.Len(t, cleaned, 1)
	assert.Equal(t, 1, audit.Dropped[domain.DropInvalidTimestamp])
	assert.Equal(t, 1, audit.Dropped[domain.DropInvalidAmount])
	assert.Equal(t, 1, audit.Dropped[domain.DropCancelled])
	assert.Equal(t, domain.OutlierFilterDisabled, audit.OutlierFiltering)
}

func TestClean_InvalidAmounts(t *testing.T) {
	negativeQty := sale(3, 10)
	negativeQty.Quantity = -2
	flagged := sale(4, 0)
	flagged.Missing = flagged.Missing.With(domain.FieldAmount)

	rows := []domain.Transaction{sale(0, math.NaN()), sale(1, math.Inf(1)), sale(2, -0.01), negativeQty, flagged, sale(5, 0)}

	cleaned, audit, err := NewCleaner(DefaultOptions(), nil).Clean(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 5, audit.Dropped[domain.DropInvalidAmount])
	require.Len(t, cleaned, 1)
	assert.Equal(t, 0.0, cleaned[0].Amount)
}

func TestClean_SmallSampleSkipsOutlierFilter(t *testing.T) {
	rows := []domain.Transaction{sale(0, 10), sale(1, 11), sale(2, 9999)}

	cleaned, audit, err := NewCleaner(DefaultOptions(), nil).Clean(context.Background(), rows)
	require.NoError(t, err)

	assert.Len(t, cleaned, 3)
	assert.Equal(t, domain.OutlierFilterSkippedSmallSample, audit.OutlierFiltering)
	assert.Nil(t, audit.OutlierBounds)
}

func TestClean_OutlierFilterDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.FilterOutliers = false

	cleaned, audit, err := NewCleaner(opts, nil).Clean(context.Background(), scenarioRows())
	require.NoError(t, err)

	assert.Len(t, cleaned, 87)
	assert.Equal(t, domain.OutlierFilterDisabled, audit.OutlierFiltering)
	assert.Equal(t, 0, audit.Dropped[domain.DropOutlier])
}

func TestClean_CustomMultiplier(t *testing.T) {
	opts := DefaultOptions()
	opts.OutlierMultiplier = 100

	_, audit, err := NewCleaner(opts, nil).Clean(context.Background(), scenarioRows())
	require.NoError(t, err)
	assert.InDelta(t, 506, audit.OutlierBounds.Upper, 1e-9)
	assert.Equal(t, 1, audit.Dropped[domain.DropOutlier])
}

func TestClean_EmptyResult(t *testing.T) {
	rows := []domain.Transaction{sale(0, -1), sale(1, -2)}

	_, audit, err := NewCleaner(DefaultOptions(), nil).Clean(context.Background(), rows)
	require.Error(t, err)
	assert.True(t, apperrors.IsInsufficientData(err))
	assert.Equal(t, 2, audit.Dropped[domain.DropInvalidAmount])
	assert.True(t, audit.Balanced())

	_, _, err = NewCleaner(DefaultOptions(), nil).Clean(context.Background(), nil)
	assert.True(t, apperrors.IsInsufficientData(err))
}

func TestClean_AccountsForEveryRow(t *testing.T) {
	for seed := 0; seed < 20; seed++ {
		t.Run(fmt.Sprintf("seed_%d", seed), func(t *testing.T) {
			rows := make([]domain.Transaction, 0, 60)
			for i := 0; i < 60; i++ {
				v := float64((i*7+seed*13)%50) + 1
				switch (i + seed) % 11 {
				case 0:
					v = -v
				case 1:
					v *= 500
				}
				tx := sale(i%17, v)
				if (i+seed)%13 == 0 {
					tx.Missing = tx.Missing.With(domain.FieldTimestamp)
				}
				rows = append(rows, tx)
				if (i+seed)%9 == 0 {
					rows = append(rows, tx)
				}
			}

			cleaned, audit, err := NewCleaner(DefaultOptions(), nil).Clean(context.Background(), rows)
			require.NoError(t, err)
			assert.Equal(t, len(rows), audit.TotalDropped()+len(cleaned))

			again, audit2, err := NewCleaner(DefaultOptions(), nil).Clean(context.Background(), cleaned)
			require.NoError(t, err)
			assert.Equal(t, 0, audit2.TotalDropped())
			assert.Equal(t, cleaned, again)
		})
	}
}

func TestClean_IdempotentOnScenario(t *testing.T) {
	c := NewCleaner(DefaultOptions(), nil)
	cleaned, _, err := c.Clean(context.Background(), scenarioRows())
	require.NoError(t, err)

	again, audit, err := c.Clean(context.Background(), cleaned)
	require.NoError(t, err)
	assert.Equal(t, 0, audit.TotalDropped())
	assert.Equal(t, cleaned, again)
}

func TestClean_FillsOptionalAndSorts(t *testing.T) {
	late := sale(5, 20)
	early := sale(1, 30)
	early.CustomerID = ""
	early.Missing = early.Missing.With(domain.FieldCustomerID)

	cleaned, audit, err := NewCleaner(DefaultOptions(), nil).Clean(context.Background(), []domain.Transaction{late, early})
	require.NoError(t, err)

	require.Len(t, cleaned, 2)
	assert.True(t, cleaned[0].Timestamp.Before(cleaned[1].Timestamp))
	assert.Equal(t, UnknownCustomer, cleaned[0].CustomerID)
	assert.True(t, cleaned[0].Missing.Has(domain.FieldCustomerID))
	// Both rows lack a description and a country; one also lacks a customer.
	assert.Equal(t, 5, audit.FilledOptional)
}

func TestClean_DoesNotMutateInput(t *testing.T) {
	rows := scenarioRows()
	snapshot := append([]domain.Transaction(nil), rows...)

	_, _, err := NewCleaner(DefaultOptions(), nil).Clean(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, snapshot, rows)
}
