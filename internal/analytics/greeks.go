package analytics

import (
	"errors"
	"math"
)

// Greeks holds Black-Scholes sensitivities for a European option.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
}

// OptionGreeks computes Black-Scholes delta and gamma.
// spot, strike, expiry (years), and sigma must be positive; rate is the
// risk-free rate as a decimal. optionType is "call" or "put".
func OptionGreeks(spot, strike, expiry, rate, sigma float64, optionType string) (Greeks, error) {
	if expiry <= 0 || sigma <= 0 || spot <= 0 || strike <= 0 {
		return Greeks{}, errors.New("inputs must be positive")
	}
	if optionType != "call" && optionType != "put" {
		return Greeks{}, errors.New("option type must be call or put")
	}

	sqrtT := math.Sqrt(expiry)
	d1 := (math.Log(spot/strike) + (rate+0.5*sigma*sigma)*expiry) / (sigma * sqrtT)

	delta := cumNorm(d1)
	if optionType == "put" {
		delta -= 1
	}
	gamma := normPDF(d1) / (spot * sigma * sqrtT)

	return Greeks{Delta: delta, Gamma: gamma}, nil
}

func cumNorm(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}
