package patomic

import (
	"math/big"
	"math/bits"
	"strconv"
)

// Uint128 is an unsigned 128-bit integer. Lo is stored first, matching the
// word order CMPXCHG16B and CASP expect on little-endian targets.
type Uint128 struct {
	Lo, Hi uint64
}

// Int128 is a two's-complement signed 128-bit integer with the same
// layout as Uint128.
type Int128 struct {
	Lo uint64
	Hi int64
}

// Uint128From64 zero-extends v.
func Uint128From64(v uint64) Uint128 {
	return Uint128{Lo: v}
}

// Int128From64 sign-extends v.
func Int128From64(v int64) Int128 {
	return Int128{Lo: uint64(v), Hi: v >> 63}
}

// Add returns u+v modulo 2^128.
func (u Uint128) Add(v Uint128) Uint128 {
	lo, c := bits.Add64(u.Lo, v.Lo, 0)
	hi, _ := bits.Add64(u.Hi, v.Hi, c)
	return Uint128{Lo: lo, Hi: hi}
}

// Sub returns u-v modulo 2^128.
func (u Uint128) Sub(v Uint128) Uint128 {
	lo, b := bits.Sub64(u.Lo, v.Lo, 0)
	hi, _ := bits.Sub64(u.Hi, v.Hi, b)
	return Uint128{Lo: lo, Hi: hi}
}

func (u Uint128) And(v Uint128) Uint128 { return Uint128{Lo: u.Lo & v.Lo, Hi: u.Hi & v.Hi} }
func (u Uint128) Or(v Uint128) Uint128  { return Uint128{Lo: u.Lo | v.Lo, Hi: u.Hi | v.Hi} }
func (u Uint128) Xor(v Uint128) Uint128 { return Uint128{Lo: u.Lo ^ v.Lo, Hi: u.Hi ^ v.Hi} }
func (u Uint128) Not() Uint128          { return Uint128{Lo: ^u.Lo, Hi: ^u.Hi} }

// Cmp returns -1, 0 or +1 as u is less than, equal to or greater than v.
func (u Uint128) Cmp(v Uint128) int {
	switch {
	case u.Hi < v.Hi:
		return -1
	case u.Hi > v.Hi:
		return 1
	case u.Lo < v.Lo:
		return -1
	case u.Lo > v.Lo:
		return 1
	}
	return 0
}

// Int128 reinterprets the bits of u as signed.
func (u Uint128) Int128() Int128 {
	return Int128{Lo: u.Lo, Hi: int64(u.Hi)}
}

// Big returns u as a big.Int.
func (u Uint128) Big() *big.Int {
	b := new(big.Int).SetUint64(u.Hi)
	b.Lsh(b, 64)
	return b.Or(b, new(big.Int).SetUint64(u.Lo))
}

func (u Uint128) String() string {
	if u.Hi == 0 {
		return strconv.FormatUint(u.Lo, 10)
	}
	return u.Big().String()
}

// Uint128 reinterprets the bits of i as unsigned.
func (i Int128) Uint128() Uint128 {
	return Uint128{Lo: i.Lo, Hi: uint64(i.Hi)}
}

// Add returns i+j with two's-complement wraparound.
func (i Int128) Add(j Int128) Int128 { return i.Uint128().Add(j.Uint128()).Int128() }

// Sub returns i-j with two's-complement wraparound.
func (i Int128) Sub(j Int128) Int128 { return i.Uint128().Sub(j.Uint128()).Int128() }

// Neg returns -i with two's-complement wraparound.
func (i Int128) Neg() Int128 { return Int128{}.Sub(i) }

func (i Int128) And(j Int128) Int128 { return i.Uint128().And(j.Uint128()).Int128() }
func (i Int128) Or(j Int128) Int128  { return i.Uint128().Or(j.Uint128()).Int128() }
func (i Int128) Xor(j Int128) Int128 { return i.Uint128().Xor(j.Uint128()).Int128() }
func (i Int128) Not() Int128         { return i.Uint128().Not().Int128() }

// Cmp returns -1, 0 or +1 as i is less than, equal to or greater than j.
func (i Int128) Cmp(j Int128) int {
	switch {
	case i.Hi < j.Hi:
		return -1
	case i.Hi > j.Hi:
		return 1
	case i.Lo < j.Lo:
		return -1
	case i.Lo > j.Lo:
		return 1
	}
	return 0
}

// Big returns i as a big.Int.
func (i Int128) Big() *big.Int {
	if i.Hi >= 0 {
		return i.Uint128().Big()
	}
	b := i.Neg().Uint128().Big()
	return b.Neg(b)
}

func (i Int128) String() string {
	return i.Big().String()
}
