package distribution

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// PercentageDecimals is the number of fractional digits carried by Percentage.
const PercentageDecimals = 18

var percentageUnit = uint256.NewInt(1_000_000_000_000_000_000) // 1e18 == 100%

// Percentage is an 18-decimal fixed point fraction where 10^18 atomics
// represent 100%.
type Percentage struct {
	atomics uint256.Int
}

// ParsePercentage parses a decimal fraction such as "0.25" into a Percentage.
// Values outside [0, 1] or with more than 18 fractional digits are rejected.
func ParsePercentage(value string) (Percentage, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Percentage{}, fmt.Errorf("distribution: percentage required")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Percentage{}, fmt.Errorf("distribution: parse percentage %q: %w", value, err)
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return Percentage{}, fmt.Errorf("distribution: percentage %s outside [0, 1]", d.String())
	}
	scaled := d.Shift(PercentageDecimals)
	if !scaled.IsInteger() {
		return Percentage{}, fmt.Errorf("distribution: percentage %s exceeds %d decimals", d.String(), PercentageDecimals)
	}
	atomics, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return Percentage{}, fmt.Errorf("distribution: percentage %s out of range", d.String())
	}
	return Percentage{atomics: *atomics}, nil
}

// MustPercentage is ParsePercentage for constants and tests.
func MustPercentage(value string) Percentage {
	p, err := ParsePercentage(value)
	if err != nil {
		panic(err)
	}
	return p
}

// PercentageFromAtomics wraps a raw 18-decimal value.
func PercentageFromAtomics(atomics *uint256.Int) Percentage {
	var p Percentage
	if atomics != nil {
		p.atomics.Set(atomics)
	}
	return p
}

// Atomics returns a copy of the raw 18-decimal value.
func (p Percentage) Atomics() *uint256.Int {
	return new(uint256.Int).Set(&p.atomics)
}

func (p Percentage) IsZero() bool { return p.atomics.IsZero() }

func (p Percentage) String() string {
	return decimal.NewFromBigInt(p.atomics.ToBig(), -PercentageDecimals).String()
}

// MarshalText encodes the percentage as a decimal string.
func (p Percentage) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a decimal string.
func (p *Percentage) UnmarshalText(text []byte) error {
	parsed, err := ParsePercentage(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// applyPercentage returns floor(amount * pct). The product is formed in 512
// bits so neither operand's magnitude can overflow before the division.
func applyPercentage(amount *uint256.Int, pct Percentage) (*uint256.Int, error) {
	return mulDivFloor("percentage", amount, &pct.atomics, percentageUnit)
}

// mulDivFloor returns floor(x * y / d) with a 512-bit intermediate.
func mulDivFloor(op string, x, y, d *uint256.Int) (*uint256.Int, error) {
	if d == nil || d.IsZero() {
		return nil, arithmeticError(op, "division by zero")
	}
	if x == nil || y == nil || x.IsZero() || y.IsZero() {
		return new(uint256.Int), nil
	}
	out, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, arithmeticError(op, fmt.Sprintf("%s * %s / %s overflows 256 bits", x.Dec(), y.Dec(), d.Dec()))
	}
	return out, nil
}

func checkedAdd(op string, a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(zeroIfNil(a), zeroIfNil(b))
	if overflow {
		return nil, arithmeticError(op, fmt.Sprintf("%s + %s overflows 256 bits", zeroIfNil(a).Dec(), zeroIfNil(b).Dec()))
	}
	return sum, nil
}

// saturatingSub returns max(a - b, 0).
func saturatingSub(a, b *uint256.Int) *uint256.Int {
	a, b = zeroIfNil(a), zeroIfNil(b)
	if a.Cmp(b) <= 0 {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(a, b)
}

func minUint(a, b *uint256.Int) *uint256.Int {
	if a.Cmp(b) <= 0 {
		return new(uint256.Int).Set(a)
	}
	return new(uint256.Int).Set(b)
}

func zeroIfNil(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

func cloneAmount(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(v)
}

// ParseAmount parses a base-10 token amount.
func ParseAmount(value string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("distribution: amount required")
	}
	amount, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("distribution: parse amount %q: %w", value, err)
	}
	return amount, nil
}
