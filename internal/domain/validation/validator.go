// Package validation gates records before they can touch analytics state.
package validation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/model"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/pkg/logger"
)

// recordValidate is shared; validator.Validate caches struct metadata and is
// safe for concurrent use.
var recordValidate *validator.Validate

func init() {
	recordValidate = validator.New(validator.WithRequiredStructEnabled())
	recordValidate.RegisterTagNameFunc(jsonFieldName)

	_ = recordValidate.RegisterValidation("finite", validateFinite)
	_ = recordValidate.RegisterValidation("integral", validateIntegral)
	_ = recordValidate.RegisterValidation("nonblank", validateNonBlank)
	_ = recordValidate.RegisterValidation("quantum", validateQuantum)
}

// validateFinite rejects NaN and ±Inf.
func validateFinite(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.Float64 && f.Kind() != reflect.Float32 {
		return true
	}
	v := f.Float()
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validateIntegral(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	return v == math.Trunc(v)
}

// validateQuantum accepts only whole multiples of model.Quantum.
func validateQuantum(fl validator.FieldLevel) bool {
	const scale = 1 / model.Quantum
	v := fl.Field().Float()
	return math.Round(v*scale)/scale == v
}

func validateNonBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// Validator checks tasting and experience records.
type Validator struct {
	logger logger.Logger
}

// New creates a Validator that reports rejections on log.
func New(log logger.Logger) *Validator {
	if log == nil {
		log = logger.Nop()
	}
	return &Validator{logger: log}
}

// ValidateTasting returns a *ValidationError when rec cannot be counted.
func (v *Validator) ValidateTasting(ctx context.Context, rec model.TastingRecord) error { //nolint:gocritic // records are small value types
	return v.check(ctx, "tasting", rec.ID, rec)
}

// ValidateExperience returns a *ValidationError when rec cannot be counted.
func (v *Validator) ValidateExperience(ctx context.Context, rec model.ExperienceRecord) error {
	return v.check(ctx, "experience", rec.ID, rec)
}

// ValidTasting reports whether rec passes validation.
func (v *Validator) ValidTasting(ctx context.Context, rec model.TastingRecord) bool { //nolint:gocritic // records are small value types
	return v.ValidateTasting(ctx, rec) == nil
}

// ValidExperience reports whether rec passes validation.
func (v *Validator) ValidExperience(ctx context.Context, rec model.ExperienceRecord) bool {
	return v.ValidateExperience(ctx, rec) == nil
}

func (v *Validator) check(ctx context.Context, entity, id string, rec any) error {
	err := recordValidate.Struct(rec)
	if err == nil {
		return nil
	}

	verr := &ValidationError{Entity: entity, RecordID: id, Rule: "struct"}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		verr.Field = fe.Field()
		verr.Value = fe.Value()
		verr.Rule = fe.Tag()
		if fe.Param() != "" {
			verr.Rule = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
		}
	}

	v.logger.Warn(ctx, "record rejected",
		logger.String("entity", entity),
		logger.String("record_id", id),
		logger.String("field", verr.Field),
		logger.String("rule", verr.Rule),
		logger.String("value", fmt.Sprint(verr.Value)),
	)
	return verr
}
