// Package views derives read-only projections from the model roster:
// formatted table rows, chart points and the proposed-model conclusion.
package views

import (
	"math"
	"math/big"
	"strconv"
)

// Placeholder is rendered wherever a value is absent.
const Placeholder = "—"

// ToPercent formats a fraction as a one-decimal percentage.
// A nil or NaN value yields Placeholder.
func ToPercent(x *float64) string {
	if x == nil || math.IsNaN(*x) {
		return Placeholder
	}
	return fixed(*x*100, 1) + "%"
}

// Percent is ToPercent for a value that is known to be present.
func Percent(x float64) string {
	return ToPercent(&x)
}

// TooltipValue formats a fraction the way the chart tooltip does:
// scaled by 100 with two decimals. It intentionally differs from ToPercent.
func TooltipValue(x float64) string {
	return fixed(x*100, 2) + "%"
}

// FormatLoss renders a loss value with exactly four decimals.
func FormatLoss(x float64) string {
	return fixed(x, 4)
}

// FormatNumber renders params/GFLOPs as authored, without re-rounding.
func FormatNumber(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

// fixed formats x with the given number of decimals. It works on the exact
// binary value of x and rounds ties up, so 92.25 becomes "92.3".
func fixed(x float64, decimals int) string {
	r := new(big.Rat).SetFloat64(x)
	if r == nil {
		return strconv.FormatFloat(x, 'f', decimals, 64)
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	r.Mul(r, new(big.Rat).SetInt(scale))
	r.Add(r, big.NewRat(1, 2))
	// Div is Euclidean and the denominator is positive, so this is floor.
	n := new(big.Int).Div(r.Num(), r.Denom())
	return new(big.Rat).SetFrac(n, scale).FloatString(decimals)
}
