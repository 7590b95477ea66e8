package http

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/operations"
	api "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/api/v1"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

func TestParamsFromValues(t *testing.T) {
	values := url.Values{
		"granularity":        {" Week "},
		"horizon":            {"8"},
		"metric":             {"ORDERS"},
		"outlier_filtering":  {"true"},
		"outlier_multiplier": {"3"},
		"outlier_passes":     {"1"},
		"drop_cancelled":     {"0"},
		"top_products":       {"5"},
		"sheet":              {"Orders"},
		"role.Amount":        {"Total "},
	}

	p, errs := paramsFromValues(values)
	require.Empty(t, errs)
	assert.Equal(t, "week", p.Granularity)
	assert.Equal(t, "orders", p.Metric)
	assert.Equal(t, "Orders", p.Sheet)
	require.NotNil(t, p.Horizon)
	assert.Equal(t, 8, *p.Horizon)
	require.NotNil(t, p.OutlierFiltering)
	assert.True(t, *p.OutlierFiltering)
	require.NotNil(t, p.OutlierMultiplier)
	assert.Equal(t, 3.0, *p.OutlierMultiplier)
	require.NotNil(t, p.OutlierPasses)
	assert.Equal(t, 1, *p.OutlierPasses)
	require.NotNil(t, p.DropCancelled)
	assert.False(t, *p.DropCancelled)
	require.NotNil(t, p.TopProducts)
	assert.Equal(t, 5, *p.TopProducts)
	assert.Equal(t, map[string]string{"amount": "Total"}, p.Roles)

	assert.Empty(t, validateParams(newValidator(), p))
}

func TestParamsFromValuesCollectsErrors(t *testing.T) {
	_, errs := paramsFromValues(url.Values{
		"horizon":            {"x"},
		"top_products":       {"1.5"},
		"outlier_multiplier": {"wide"},
		"outlier_filtering":  {"sometimes"},
		"outlier_passes":     {"all"},
	})

	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"horizon", "top_products", "outlier_multiplier", "outlier_filtering", "outlier_passes"}, fields)
}

func TestValidateParamsFieldNames(t *testing.T) {
	zero := 0
	p := api.AnalysisParams{Horizon: &zero, Roles: map[string]string{"margin": "M"}}

	errs := validateParams(newValidator(), p)
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"horizon", "role.margin"}, fields)
}

func TestApplyParams(t *testing.T) {
	base := operations.DefaultOptions()
	base.RoleOverrides = map[string]domain.Role{"Ship Date": domain.RoleTimestamp}

	t.Run("empty params keep defaults", func(t *testing.T) {
		assert.Equal(t, base, applyParams(base, api.AnalysisParams{}))
	})

	t.Run("overrides are layered", func(t *testing.T) {
		h, off, mult, passes := 4, false, 2.5, 1
		got := applyParams(base, api.AnalysisParams{
			Granularity:       "month",
			Metric:            "units",
			Horizon:           &h,
			OutlierFiltering:  &off,
			OutlierMultiplier: &mult,
			OutlierPasses:     &passes,
			Roles:             map[string]string{"amount": "Total"},
		})

		assert.Equal(t, domain.GranularityMonth, got.Granularity)
		assert.Equal(t, domain.MetricUnits, got.Metric)
		assert.Equal(t, 4, got.Horizon)
		assert.False(t, got.OutlierFiltering)
		assert.Equal(t, 2.5, got.OutlierMultiplier)
		assert.Equal(t, 1, got.OutlierPasses)
		assert.Equal(t, map[string]domain.Role{
			"Ship Date": domain.RoleTimestamp,
			"Total":     domain.RoleAmount,
		}, got.RoleOverrides)
		assert.Len(t, base.RoleOverrides, 1, "defaults must not be mutated")
	})
}
