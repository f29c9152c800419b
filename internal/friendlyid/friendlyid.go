// Package friendlyid derives short display codes for ledger transactions.
//
// A code is the hashids encoding of the transaction's timestamp, delta,
// envelope id and user id. Hashids is a bijection for a given salt, so
// distinct inputs never share a code. The codes obfuscate the inputs,
// they are not a cryptographic protection.
package friendlyid

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	hashids "github.com/speps/go-hashids/v2"
)

// Alphabet used for codes. Easily confused characters are left out.
const Alphabet = "0123456789ACDEFGHIJKLOQRSTUVWXYZ"

// MinLength is the minimum length of a code.
const MinLength = 8

// limit is the largest absolute value a signed input may have so
// that its zig-zag encoding is a non-negative int64.
const limit = int64(1) << 62

var (
	ErrOutOfRange  = errors.New("friendly id input is out of range")
	ErrInvalidCode = errors.New("friendly id is invalid")
)

// Fields are the values a code is derived from.
type Fields struct {
	Created    time.Time
	Delta      decimal.Decimal
	EnvelopeID uint64
	UserID     uint64
}

// Encoder encodes and decodes friendly ids with a fixed salt.
type Encoder struct {
	hashID *hashids.HashID
}

// New returns an Encoder using salt.
func New(salt string) (*Encoder, error) {
	data := hashids.NewData()
	data.Alphabet = Alphabet
	data.MinLength = MinLength
	data.Salt = salt

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("configuring hashids: %w", err)
	}

	return &Encoder{hashID: h}, nil
}

// Encode returns the code for a transaction.
//
// The timestamp is used with microsecond precision and the delta with
// two fraction digits.
func (e *Encoder) Encode(created time.Time, delta decimal.Decimal, envelopeID, userID uint64) (string, error) {
	micros := created.UnixMicro()
	if micros >= limit || micros <= -limit {
		return "", fmt.Errorf("%w: timestamp %s", ErrOutOfRange, created)
	}

	bound := decimal.NewFromInt(limit)
	hundredths := delta.Round(2).Shift(2)
	if hundredths.Abs().GreaterThanOrEqual(bound) {
		return "", fmt.Errorf("%w: delta %s", ErrOutOfRange, delta)
	}

	if envelopeID >= uint64(1)<<63 || userID >= uint64(1)<<63 {
		return "", fmt.Errorf("%w: ids must be below 2^63", ErrOutOfRange)
	}

	code, err := e.hashID.EncodeInt64([]int64{
		zigzag(micros),
		zigzag(hundredths.IntPart()),
		int64(envelopeID),
		int64(userID),
	})
	if err != nil {
		return "", fmt.Errorf("encoding friendly id: %w", err)
	}

	return code, nil
}

// Decode returns the values a code was derived from.
func (e *Encoder) Decode(code string) (Fields, error) {
	numbers, err := e.hashID.DecodeInt64WithError(code)
	if err != nil || len(numbers) != 4 {
		return Fields{}, fmt.Errorf("%w: '%s'", ErrInvalidCode, code)
	}

	return Fields{
		Created:    time.UnixMicro(unzigzag(numbers[0])).In(time.UTC),
		Delta:      decimal.New(unzigzag(numbers[1]), -2),
		EnvelopeID: uint64(numbers[2]),
		UserID:     uint64(numbers[3]),
	}, nil
}

// zigzag maps signed integers to non-negative ones: 0, -1, 1, -2, 2 become 0, 1, 2, 3, 4.
func zigzag(n int64) int64 {
	return int64(uint64(n<<1) ^ uint64(n>>63))
}

func unzigzag(n int64) int64 {
	return int64(uint64(n)>>1) ^ -(n & 1)
}
