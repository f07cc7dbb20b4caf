// Package encoding implements the fixed-stride binary codec for order
// snapshot records. A snapshot is the concatenation of 112-byte records;
// decoding is pure and cannot fail per record once the total length checks
// out.
package encoding

import (
	"encoding/binary"
	"fmt"
	"iter"
	"math/big"

	"github.com/dexmesh/pricegraph/pkg/types"
)

// ElementSize is the byte stride of one encoded order record.
const ElementSize = 112

// Record layout, big-endian:
//
//	[0:20]    user address
//	[20:52]   sell token balance (uint256)
//	[52:54]   buy token id       (uint16)
//	[54:56]   sell token id      (uint16)
//	[56:60]   valid from batch   (uint32)
//	[60:64]   valid until batch  (uint32)
//	[64:80]   price numerator    (uint128)
//	[80:96]   price denominator  (uint128)
//	[96:112]  remaining sell amount (uint128)
const (
	offsetUser      = 0
	offsetBalance   = 20
	offsetBuyToken  = 52
	offsetSellToken = 54
	offsetValidFrom = 56
	offsetValidTo   = 60
	offsetNumerator = 64
	offsetDenom     = 80
	offsetRemaining = 96
)

// InvalidLengthError reports a snapshot whose byte length is not a multiple
// of ElementSize.
type InvalidLengthError struct {
	Len int
}

func (e *InvalidLengthError) Error() string {
	return fmt.Sprintf("snapshot length %d is not a multiple of the %d byte element size", e.Len, ElementSize)
}

// DecodeElements validates the snapshot length and returns a restartable
// lazy sequence over its elements together with the record count. Every
// fixed-width field read is total, so no error can occur after the length
// check passes.
func DecodeElements(data []byte) (iter.Seq[types.Element], int, error) {
	if len(data)%ElementSize != 0 {
		return nil, 0, &InvalidLengthError{Len: len(data)}
	}
	count := len(data) / ElementSize
	seq := func(yield func(types.Element) bool) {
		for i := 0; i < count; i++ {
			if !yield(decodeElement(data[i*ElementSize : (i+1)*ElementSize])) {
				return
			}
		}
	}
	return seq, count, nil
}

// DecodeElementSlice is DecodeElements with the sequence collected into a
// slice, for callers that need the records more than once.
func DecodeElementSlice(data []byte) ([]types.Element, error) {
	seq, count, err := DecodeElements(data)
	if err != nil {
		return nil, err
	}
	elements := make([]types.Element, 0, count)
	for el := range seq {
		elements = append(elements, el)
	}
	return elements, nil
}

func decodeElement(record []byte) types.Element {
	var user types.UserID
	copy(user[:], record[offsetUser:offsetBalance])
	return types.Element{
		User:    user,
		Balance: new(big.Int).SetBytes(record[offsetBalance:offsetBuyToken]),
		Pair: types.TokenPair{
			Buy:  types.TokenID(binary.BigEndian.Uint16(record[offsetBuyToken:])),
			Sell: types.TokenID(binary.BigEndian.Uint16(record[offsetSellToken:])),
		},
		Valid: types.Validity{
			From: types.BatchID(binary.BigEndian.Uint32(record[offsetValidFrom:])),
			To:   types.BatchID(binary.BigEndian.Uint32(record[offsetValidTo:])),
		},
		Price: types.PriceFraction{
			Numerator:   new(big.Int).SetBytes(record[offsetNumerator:offsetDenom]),
			Denominator: new(big.Int).SetBytes(record[offsetDenom:offsetRemaining]),
		},
		Remaining: new(big.Int).SetBytes(record[offsetRemaining:ElementSize]),
	}
}

// EncodeElement appends the binary encoding of one element to buf and
// returns the extended buffer. It is the inverse of decoding and exists for
// snapshot tooling; the engine itself only decodes.
func EncodeElement(buf []byte, el types.Element) []byte {
	var record [ElementSize]byte
	copy(record[offsetUser:offsetBalance], el.User[:])
	putBig(record[offsetBalance:offsetBuyToken], el.Balance)
	binary.BigEndian.PutUint16(record[offsetBuyToken:], uint16(el.Pair.Buy))
	binary.BigEndian.PutUint16(record[offsetSellToken:], uint16(el.Pair.Sell))
	binary.BigEndian.PutUint32(record[offsetValidFrom:], uint32(el.Valid.From))
	binary.BigEndian.PutUint32(record[offsetValidTo:], uint32(el.Valid.To))
	putBig(record[offsetNumerator:offsetDenom], el.Price.Numerator)
	putBig(record[offsetDenom:offsetRemaining], el.Price.Denominator)
	putBig(record[offsetRemaining:ElementSize], el.Remaining)
	return append(buf, record[:]...)
}

// EncodeElements encodes a full snapshot.
func EncodeElements(elements []types.Element) []byte {
	buf := make([]byte, 0, len(elements)*ElementSize)
	for _, el := range elements {
		buf = EncodeElement(buf, el)
	}
	return buf
}

// putBig writes v right-aligned and zero-padded into dst. Values wider than
// dst are truncated to the low-order bytes.
func putBig(dst []byte, v *big.Int) {
	if v == nil {
		return
	}
	b := v.Bytes()
	if len(b) > len(dst) {
		b = b[len(b)-len(dst):]
	}
	copy(dst[len(dst)-len(b):], b)
}
