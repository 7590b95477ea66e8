package http

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/operations"
	api "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/api/v1"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

const rolePrefix = "role."

// paramsFromValues reads run options from form or query values. Only the
// first value of a repeated key is used.
func paramsFromValues(values url.Values) (api.AnalysisParams, []apperrors.ValidationError) {
	var (
		p    api.AnalysisParams
		errs []apperrors.ValidationError
	)
	bad := func(field, format string, args ...any) {
		errs = append(errs, apperrors.ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	p.Granularity = strings.ToLower(strings.TrimSpace(values.Get("granularity")))
	p.Metric = strings.ToLower(strings.TrimSpace(values.Get("metric")))
	p.Sheet = strings.TrimSpace(values.Get("sheet"))

	if v := strings.TrimSpace(values.Get("horizon")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			bad("horizon", "must be an integer, got %q", v)
		} else {
			p.Horizon = &n
		}
	}
	if v := strings.TrimSpace(values.Get("top_products")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			bad("top_products", "must be an integer, got %q", v)
		} else {
			p.TopProducts = &n
		}
	}
	if v := strings.TrimSpace(values.Get("outlier_passes")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			bad("outlier_passes", "must be an integer, got %q", v)
		} else {
			p.OutlierPasses = &n
		}
	}
	if v := strings.TrimSpace(values.Get("outlier_multiplier")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			bad("outlier_multiplier", "must be a number, got %q", v)
		} else {
			p.OutlierMultiplier = &f
		}
	}
	for _, field := range []struct {
		key string
		dst **bool
	}{
		{"outlier_filtering", &p.OutlierFiltering},
		{"drop_cancelled", &p.DropCancelled},
	} {
		v := strings.TrimSpace(values.Get(field.key))
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			bad(field.key, "must be a boolean, got %q", v)
			continue
		}
		*field.dst = &b
	}

	for key := range values {
		if !strings.HasPrefix(key, rolePrefix) {
			continue
		}
		if p.Roles == nil {
			p.Roles = make(map[string]string)
		}
		p.Roles[strings.ToLower(strings.TrimPrefix(key, rolePrefix))] = strings.TrimSpace(values.Get(key))
	}

	return p, errs
}

// validateParams runs the struct tags and flattens the failures.
func validateParams(v *validator.Validate, p api.AnalysisParams) []apperrors.ValidationError {
	err := v.Struct(p)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []apperrors.ValidationError{{Field: "params", Message: err.Error()}}
	}
	out := make([]apperrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperrors.ValidationError{
			Field:   fieldName(fe),
			Message: fmt.Sprintf("failed %q validation", fe.Tag()),
		})
	}
	return out
}

func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if i := strings.Index(name, "["); i >= 0 {
		// roles[amount] -> role.amount
		return rolePrefix + strings.Trim(name[i:], "[]")
	}
	return name
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// applyParams overlays the request options on the service defaults.
func applyParams(opts operations.Options, p api.AnalysisParams) operations.Options {
	if p.Granularity != "" {
		opts.Granularity = domain.Granularity(p.Granularity)
	}
	if p.Metric != "" {
		opts.Metric = domain.Metric(p.Metric)
	}
	if p.Horizon != nil {
		opts.Horizon = *p.Horizon
	}
	if p.OutlierFiltering != nil {
		opts.OutlierFiltering = *p.OutlierFiltering
	}
	if p.OutlierMultiplier != nil {
		opts.OutlierMultiplier = *p.OutlierMultiplier
	}
	if p.OutlierPasses != nil {
		opts.OutlierPasses = *p.OutlierPasses
	}
	if p.DropCancelled != nil {
		opts.DropCancelled = *p.DropCancelled
	}
	if p.TopProducts != nil {
		opts.TopProducts = *p.TopProducts
	}
	if len(p.Roles) > 0 {
		overrides := make(map[string]domain.Role, len(opts.RoleOverrides)+len(p.Roles))
		for col, role := range opts.RoleOverrides {
			overrides[col] = role
		}
		for role, col := range p.Roles {
			overrides[col] = domain.Role(role)
		}
		opts.RoleOverrides = overrides
	}
	return opts
}
