package encoding

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dexmesh/pricegraph/pkg/types"
)

func TestDecodeElements_InvalidLength(t *testing.T) {
	for _, n := range []int{1, ElementSize - 1, ElementSize + 1, 3*ElementSize - 7} {
		_, _, err := DecodeElements(make([]byte, n))
		require.Error(t, err, "length %d must not decode", n)
		var lenErr *InvalidLengthError
		require.ErrorAs(t, err, &lenErr)
		require.Equal(t, n, lenErr.Len)
	}
}

func TestDecodeElements_Empty(t *testing.T) {
	seq, count, err := DecodeElements(nil)
	require.NoError(t, err)
	require.Zero(t, count)
	for range seq {
		t.Fatal("empty snapshot must yield no elements")
	}
}

func TestDecodeElements_AllZeroRecord(t *testing.T) {
	seq, count, err := DecodeElements(make([]byte, 2*ElementSize))
	require.NoError(t, err)
	require.Equal(t, 2, count)

	for el := range seq {
		require.Equal(t, types.UserID{}, el.User)
		require.Zero(t, el.Balance.Sign())
		require.True(t, el.Price.IsDegenerate())
		require.Zero(t, el.RemainingSellAmount())
	}
}

func TestDecodeElements_Restartable(t *testing.T) {
	el := sampleElement()
	data := EncodeElements([]types.Element{el, el, el})
	seq, count, err := DecodeElements(data)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	first := 0
	for range seq {
		first++
		break // partial consumption must not exhaust the sequence
	}
	second := 0
	for range seq {
		second++
	}
	require.Equal(t, 1, first)
	require.Equal(t, 3, second)
}

func TestEncodeDecode_KnownRecord(t *testing.T) {
	el := sampleElement()
	data := EncodeElement(nil, el)
	require.Len(t, data, ElementSize)

	decoded, err := DecodeElementSlice(data)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	requireElementsEqual(t, el, decoded[0])
}

func TestEncodeDecode_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 16).Draw(t, "n")
		elements := make([]types.Element, n)
		for i := range elements {
			elements[i] = drawElement(t)
		}

		data := EncodeElements(elements)
		if len(data) != n*ElementSize {
			t.Fatalf("encoded %d elements into %d bytes", n, len(data))
		}

		decoded, err := DecodeElementSlice(data)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if len(decoded) != n {
			t.Fatalf("decoded %d of %d elements", len(decoded), n)
		}
		for i := range elements {
			requireElementsEqual(t, elements[i], decoded[i])
		}
	})
}

func drawElement(t *rapid.T) types.Element {
	var user types.UserID
	copy(user[:], rapid.SliceOfN(rapid.Byte(), 20, 20).Draw(t, "user"))
	u128 := func(label string) *big.Int {
		return new(big.Int).SetBytes(rapid.SliceOfN(rapid.Byte(), 0, 16).Draw(t, label))
	}
	return types.Element{
		User:    user,
		Balance: new(big.Int).SetBytes(rapid.SliceOfN(rapid.Byte(), 0, 32).Draw(t, "balance")),
		Pair: types.TokenPair{
			Buy:  types.TokenID(rapid.Uint16().Draw(t, "buy")),
			Sell: types.TokenID(rapid.Uint16().Draw(t, "sell")),
		},
		Valid: types.Validity{
			From: types.BatchID(rapid.Uint32().Draw(t, "from")),
			To:   types.BatchID(rapid.Uint32().Draw(t, "to")),
		},
		Price: types.PriceFraction{
			Numerator:   u128("numerator"),
			Denominator: u128("denominator"),
		},
		Remaining: u128("remaining"),
	}
}

func requireElementsEqual(t require.TestingT, want, got types.Element) {
	require.Equal(t, want.User, got.User)
	require.Zero(t, want.Balance.Cmp(got.Balance), "balance mismatch")
	require.Equal(t, want.Pair, got.Pair)
	require.Equal(t, want.Valid, got.Valid)
	require.Zero(t, want.Price.Numerator.Cmp(got.Price.Numerator), "numerator mismatch")
	require.Zero(t, want.Price.Denominator.Cmp(got.Price.Denominator), "denominator mismatch")
	require.Zero(t, want.Remaining.Cmp(got.Remaining), "remaining mismatch")
}

func sampleElement() types.Element {
	var user types.UserID
	user[0], user[19] = 0xab, 0xcd
	balance, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	return types.Element{
		User:    user,
		Balance: balance,
		Pair:    types.TokenPair{Buy: 1, Sell: 0},
		Valid:   types.Validity{From: 100, To: 200},
		Price: types.PriceFraction{
			Numerator:   big.NewInt(42_000),
			Denominator: big.NewInt(100_000),
		},
		Remaining: big.NewInt(100_000),
	}
}
