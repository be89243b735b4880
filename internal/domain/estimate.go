package domain

import (
	"fmt"
	"time"
)

// Estimate is the t-shirt size attached to a plan task.
type Estimate string

const (
	EstimateXS Estimate = "XS"
	EstimateS  Estimate = "S"
	EstimateM  Estimate = "M"
	EstimateL  Estimate = "L"
	EstimateXL Estimate = "XL"
)

// Estimates lists the valid sizes from smallest to largest.
var Estimates = []Estimate{EstimateXS, EstimateS, EstimateM, EstimateL, EstimateXL}

// workday is the length of a working day used to convert sizes to effort.
const workday = 8 * time.Hour

// NewEstimate creates an Estimate with validation
func NewEstimate(value string) (Estimate, error) {
	e := Estimate(value)
	if err := e.Validate(); err != nil {
		return "", err
	}
	return e, nil
}

// Validate checks if the estimate is one of the known sizes
func (e Estimate) Validate() error {
	switch e {
	case EstimateXS, EstimateS, EstimateM, EstimateL, EstimateXL:
		return nil
	default:
		return fmt.Errorf("invalid estimate %q: must be one of XS, S, M, L, XL", string(e))
	}
}

// String returns the string representation
func (e Estimate) String() string {
	return string(e)
}

// Range returns the lower and upper effort bounds of the size.
// XS=1-2h, S=2-4h, M=1d, L=2-3d, XL=1 week.
func (e Estimate) Range() (low, high time.Duration) {
	switch e {
	case EstimateXS:
		return 1 * time.Hour, 2 * time.Hour
	case EstimateS:
		return 2 * time.Hour, 4 * time.Hour
	case EstimateM:
		return workday, workday
	case EstimateL:
		return 2 * workday, 3 * workday
	case EstimateXL:
		return 5 * workday, 5 * workday
	default:
		return 0, 0
	}
}

// Days converts an effort duration to working days.
func Days(d time.Duration) float64 {
	return float64(d) / float64(workday)
}

// Label is the human-readable effort of the size, as used in prompts and reports.
func (e Estimate) Label() string {
	switch e {
	case EstimateXS:
		return "1-2h"
	case EstimateS:
		return "2-4h"
	case EstimateM:
		return "1d"
	case EstimateL:
		return "2-3d"
	case EstimateXL:
		return "1 week"
	default:
		return "?"
	}
}
