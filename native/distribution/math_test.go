package distribution

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestParsePercentage(t *testing.T) {
	cases := []struct {
		in      string
		atomics string
		wantErr bool
	}{
		{in: "0.25", atomics: "250000000000000000"},
		{in: "1", atomics: "1000000000000000000"},
		{in: " 0.000000000000000001 ", atomics: "1"},
		{in: "0", atomics: "0"},
		{in: "1.0000001", wantErr: true},
		{in: "-0.1", wantErr: true},
		{in: "0.0000000000000000001", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			p, err := ParsePercentage(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.atomics, p.Atomics().Dec())
		})
	}
}

func TestPercentageTextEncoding(t *testing.T) {
	p := MustPercentage("0.75")
	text, err := p.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "0.75", string(text))

	var decoded Percentage
	require.NoError(t, decoded.UnmarshalText(text))
	require.Equal(t, p.Atomics(), decoded.Atomics())
}

func TestApplyPercentageWideOperands(t *testing.T) {
	// 10^41 scale allocations exceed 128 bits; the product with 18-decimal
	// atomics would overflow 256 bits without the wide intermediate.
	entitlement := uint256.MustFromDecimal("123456789012345678901234567890123456789012")
	got, err := applyPercentage(entitlement, MustPercentage("0.75"))
	require.NoError(t, err)
	require.Equal(t, "92592591759259259175925925917592592591759", got.Dec())

	max := new(uint256.Int).SetAllOne()
	got, err = applyPercentage(max, MustPercentage("1"))
	require.NoError(t, err)
	require.Equal(t, max, got)
}

func TestMulDivFloorErrors(t *testing.T) {
	_, err := mulDivFloor("test", uint256.NewInt(1), uint256.NewInt(1), new(uint256.Int))
	require.True(t, errors.Is(err, ErrArithmeticOverflow))
	require.Equal(t, KindArithmetic, KindOf(err))

	max := new(uint256.Int).SetAllOne()
	_, err = mulDivFloor("test", max, max, uint256.NewInt(1))
	require.ErrorIs(t, err, ErrArithmeticOverflow)

	got, err := mulDivFloor("test", uint256.NewInt(17), uint256.NewInt(59), uint256.NewInt(60))
	require.NoError(t, err)
	require.Equal(t, uint64(16), got.Uint64())
}

func TestCheckedAddAndSaturatingSub(t *testing.T) {
	max := new(uint256.Int).SetAllOne()
	_, err := checkedAdd("test", max, uint256.NewInt(1))
	require.ErrorIs(t, err, ErrArithmeticOverflow)

	sum, err := checkedAdd("test", nil, uint256.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, uint64(3), sum.Uint64())

	require.True(t, saturatingSub(uint256.NewInt(3), uint256.NewInt(5)).IsZero())
	require.Equal(t, uint64(2), saturatingSub(uint256.NewInt(5), uint256.NewInt(3)).Uint64())
}

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount("100000000000000000000000000000000000000000")
	require.NoError(t, err)
	require.Equal(t, "100000000000000000000000000000000000000000", amount.Dec())

	_, err = ParseAmount("-5")
	require.Error(t, err)
	_, err = ParseAmount("")
	require.Error(t, err)
}

func TestErrorFormatting(t *testing.T) {
	err := newError(ErrExceedsClaimable).withAddress("drop1x").withAmounts(uint256.NewInt(10), uint256.NewInt(4))
	require.Equal(t, KindAmount, err.Kind)
	require.Contains(t, err.Error(), "requested=10")
	require.Contains(t, err.Error(), "available=4")
	require.Contains(t, err.Error(), "address=drop1x")
	require.ErrorIs(t, err, ErrExceedsClaimable)
	require.Equal(t, KindAmount, KindOf(ErrExceedsClaimable))
	require.Equal(t, KindUnknown, KindOf(errors.New("other")))
}
