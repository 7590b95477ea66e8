package operations

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/cleaning"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/config"
	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/forecasting"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

// Options configures a single run. Zero numeric fields take the defaults;
// the two booleans are taken as given, so start from DefaultOptions.
type Options struct {
	// RoleOverrides maps source column names to roles.
	RoleOverrides map[string]domain.Role `json:"role_overrides,omitempty" validate:"omitempty,dive,keys,required,endkeys,required"`
	// Granularity is inferred from the data span when empty.
	Granularity       domain.Granularity `json:"granularity,omitempty" validate:"omitempty,oneof=day week month"`
	Horizon           int                `json:"horizon" validate:"gte=0,lte=520"`
	Metric            domain.Metric      `json:"metric,omitempty" validate:"omitempty,oneof=revenue units orders"`
	OutlierFiltering  bool               `json:"outlier_filtering"`
	OutlierMultiplier float64            `json:"outlier_multiplier" validate:"gte=0"`
	// OutlierPasses caps the IQR passes; zero repeats until stable.
	OutlierPasses     int                `json:"outlier_passes,omitempty" validate:"gte=0,lte=100"`
	HoldoutFraction   float64            `json:"holdout_fraction" validate:"gte=0,lt=1"`
	MinHoldout        int                `json:"min_holdout" validate:"gte=0"`
	IntervalZ         float64            `json:"interval_z" validate:"gte=0"`
	DropCancelled     bool               `json:"drop_cancelled"`
	TopProducts       int                `json:"top_products" validate:"gte=0,lte=1000"`
}

// DefaultOptions returns the standard run configuration.
func DefaultOptions() Options {
	return Options{
		Horizon:           forecasting.DefaultHorizon,
		Metric:            domain.MetricRevenue,
		OutlierFiltering:  true,
		OutlierMultiplier: cleaning.DefaultOutlierMultiplier,
		HoldoutFraction:   forecasting.DefaultHoldoutFraction,
		MinHoldout:        forecasting.DefaultMinHoldout,
		IntervalZ:         forecasting.DefaultIntervalZ,
		DropCancelled:     true,
		TopProducts:       config.DefaultTopProducts,
	}
}

// OptionsFromConfig builds run options from the pipeline config section.
func OptionsFromConfig(cfg config.PipelineConfig) Options {
	return Options{
		Horizon:           cfg.Horizon,
		Metric:            domain.Metric(cfg.Metric),
		OutlierFiltering:  cfg.OutlierFiltering,
		OutlierMultiplier: cfg.OutlierMultiplier,
		OutlierPasses:     cfg.OutlierPasses,
		HoldoutFraction:   cfg.HoldoutFraction,
		MinHoldout:        cfg.MinHoldout,
		IntervalZ:         cfg.IntervalZ,
		DropCancelled:     cfg.DropCancelled,
		TopProducts:       cfg.TopProducts,
	}
}

// withDefaults fills zero numeric fields.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Horizon == 0 {
		o.Horizon = d.Horizon
	}
	if o.Metric == "" {
		o.Metric = d.Metric
	}
	if o.OutlierMultiplier == 0 {
		o.OutlierMultiplier = d.OutlierMultiplier
	}
	if o.HoldoutFraction == 0 {
		o.HoldoutFraction = d.HoldoutFraction
	}
	if o.MinHoldout == 0 {
		o.MinHoldout = d.MinHoldout
	}
	if o.IntervalZ == 0 {
		o.IntervalZ = d.IntervalZ
	}
	return o
}

func (o Options) cleaningOptions() cleaning.Options {
	return cleaning.Options{
		FilterOutliers:    o.OutlierFiltering,
		OutlierMultiplier: o.OutlierMultiplier,
		MaxOutlierPasses:  o.OutlierPasses,
		DropCancelled:     o.DropCancelled,
	}
}

func (o Options) forecastConfig() forecasting.Config {
	return forecasting.Config{
		HoldoutFraction: o.HoldoutFraction,
		MinHoldout:      o.MinHoldout,
		IntervalZ:       o.IntervalZ,
	}
}

// newValidator returns a validator reporting JSON field names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateOptions checks struct tags and role names.
func validateOptions(v *validator.Validate, o Options) error {
	if err := v.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return NewValidationError(apperrors.NewAppError(apperrors.ErrTypeValidation, err.Error(), err))
		}
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
		return NewValidationError(apperrors.NewAppValidationError(strings.Join(fields, "; ")))
	}
	for col, role := range o.RoleOverrides {
		if !role.IsValid() {
			return NewValidationError(apperrors.NewAppValidationError(fmt.Sprintf("column %q has unknown role %q", col, role)).
				WithContext("column", col))
		}
	}
	return nil
}
