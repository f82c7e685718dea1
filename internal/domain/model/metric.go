// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/okian/peereval/internal/domain/errs"
)

// Score bounds for every metric.
const (
	MinScore = 1
	MaxScore = 10
)

// Metric names one of the six rated dimensions.
type Metric string

// The six metrics, in output order.
const (
	HP  Metric = "hp"
	Atk Metric = "atk"
	Def Metric = "def"
	SpA Metric = "spa"
	SpD Metric = "spd"
	Spe Metric = "spe"
)

// Metrics lists every metric in fixed output order.
var Metrics = [...]Metric{HP, Atk, Def, SpA, SpD, Spe}

// MetricCount is the dimension of every vector.
const MetricCount = len(Metrics)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Scores is one submitted rating: six integers in [MinScore, MaxScore].
type Scores struct {
	HP  int `json:"hp" validate:"min=1,max=10"`
	Atk int `json:"atk" validate:"min=1,max=10"`
	Def int `json:"def" validate:"min=1,max=10"`
	SpA int `json:"spa" validate:"min=1,max=10"`
	SpD int `json:"spd" validate:"min=1,max=10"`
	Spe int `json:"spe" validate:"min=1,max=10"`
}

// Validate reports an errs.ErrValidation error naming every metric out of range.
func (s Scores) Validate() error {
	const op = "model.validate_scores"
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errs.Wrap(op, errs.ErrValidation, err)
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s must be between %d and %d (got %v)", fe.Field(), MinScore, MaxScore, fe.Value()))
	}
	return errs.Newf(op, errs.ErrValidation, "%s", strings.Join(parts, "; "))
}

// Vector converts the integer scores to a metric vector.
func (s Scores) Vector() Vector {
	return Vector{
		HP:  float64(s.HP),
		Atk: float64(s.Atk),
		Def: float64(s.Def),
		SpA: float64(s.SpA),
		SpD: float64(s.SpD),
		Spe: float64(s.Spe),
	}
}

// Vector maps each metric to a value. Field order is the JSON output order.
type Vector struct {
	HP  float64 `json:"hp"`
	Atk float64 `json:"atk"`
	Def float64 `json:"def"`
	SpA float64 `json:"spa"`
	SpD float64 `json:"spd"`
	Spe float64 `json:"spe"`
}

// Values returns the components in Metrics order.
func (v Vector) Values() [MetricCount]float64 {
	return [MetricCount]float64{v.HP, v.Atk, v.Def, v.SpA, v.SpD, v.Spe}
}

// VectorOf builds a vector from components in Metrics order.
func VectorOf(vals [MetricCount]float64) Vector {
	return Vector{HP: vals[0], Atk: vals[1], Def: vals[2], SpA: vals[3], SpD: vals[4], Spe: vals[5]}
}

// Get returns the value for m, or 0 for an unknown metric.
func (v Vector) Get(m Metric) float64 {
	for i, name := range Metrics {
		if name == m {
			return v.Values()[i]
		}
	}
	return 0
}
