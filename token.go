/*
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package tokenmap

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/gocql/tokenmap/internal/murmur"
)

// Token is a position on the ring. It is an opaque byte string whose width
// is fixed by the partitioner that produced it: 8 bytes for Murmur3, 16
// bytes for Random, the raw key bytes for ByteOrdered. All three encodings
// order correctly under unsigned lexicographic comparison; Murmur3 achieves
// this by storing its signed tokens in a biased form (see
// encodeMurmur3Token), while Random tokens are unsigned and stored as they
// are. Tokens must not be mutated after creation.
type Token []byte

// Less reports whether t sorts before other on the ring.
func (t Token) Less(other Token) bool {
	return bytes.Compare(t, other) < 0
}

// Equal reports whether two tokens occupy the same ring position.
func (t Token) Equal(other Token) bool {
	return bytes.Equal(t, other)
}

func (t Token) String() string {
	return fmt.Sprintf("%x", []byte(t))
}

// a token partitioner: parses the cluster's textual token representation and
// hashes partition keys into ring positions
type partitioner interface {
	Name() string
	Hash(keyParts ...[]byte) Token
	ParseToken(literal string) (Token, error)
	FormatToken(token Token) string
}

// partitionerForClass matches the suffix of a fully-qualified partitioner
// class name against the known partitioners. Returns nil for anything else.
func partitionerForClass(class string) partitioner {
	switch {
	case strings.HasSuffix(class, "Murmur3Partitioner"):
		return murmur3Partitioner{}
	case strings.HasSuffix(class, "RandomPartitioner"):
		return randomPartitioner{}
	case strings.HasSuffix(class, "ByteOrderedPartitioner"):
		return byteOrderedPartitioner{}
	}
	return nil
}

// joinKeyParts flattens a composite partition key into the byte string fed
// to the hash. Parts are concatenated in order with no separators.
func joinKeyParts(keyParts [][]byte) []byte {
	if len(keyParts) == 1 {
		return keyParts[0]
	}

	size := 0
	for _, p := range keyParts {
		size += len(p)
	}

	key := make([]byte, 0, size)
	for _, p := range keyParts {
		key = append(key, p...)
	}
	return key
}

// murmur3 partitioner: signed 64-bit tokens stored biased by 2^63
type murmur3Partitioner struct{}

// murmur3Bias maps the signed token range monotonically onto [0, 2^64-1] so
// that unsigned byte comparison agrees with the ring order.
const murmur3Bias = 1 << 63

func encodeMurmur3Token(v int64) Token {
	token := make(Token, 8)
	binary.BigEndian.PutUint64(token, uint64(v)+murmur3Bias)
	return token
}

func (p murmur3Partitioner) Name() string {
	return "Murmur3Partitioner"
}

// murmur3 little-endian, 128-bit hash, but keeps only h1
func (p murmur3Partitioner) Hash(keyParts ...[]byte) Token {
	h1 := murmur.Murmur3H1(joinKeyParts(keyParts))
	return encodeMurmur3Token(h1)
}

func (p murmur3Partitioner) ParseToken(literal string) (Token, error) {
	v, err := strconv.ParseInt(literal, 10, 64)
	if err != nil {
		return nil, &MalformedTokenError{Partitioner: p.Name(), Literal: literal, err: err}
	}
	return encodeMurmur3Token(v), nil
}

func (p murmur3Partitioner) FormatToken(token Token) string {
	v := int64(binary.BigEndian.Uint64(token) - murmur3Bias)
	return strconv.FormatInt(v, 10)
}

// random partitioner: unsigned 128-bit tokens in [0, 2^127], big-endian
type randomPartitioner struct{}

func (p randomPartitioner) Name() string {
	return "RandomPartitioner"
}

func (p randomPartitioner) Hash(keyParts ...[]byte) Token {
	h := md5.New()
	for _, part := range keyParts {
		h.Write(part)
	}
	return Token(h.Sum(nil))
}

// ParseToken never fails: leading whitespace is skipped, the first non-digit
// terminates parsing, and an empty or all-whitespace literal yields the zero
// token. The server only hands out literals in [0, 2^127], so overflow is
// out of domain.
func (p randomPartitioner) ParseToken(literal string) (Token, error) {
	return parseInt128(literal), nil
}

func (p randomPartitioner) FormatToken(token Token) string {
	return new(big.Int).SetBytes(token).String()
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// parseInt128 parses a decimal literal into a 16-byte big-endian token using
// two 64-bit limbs. The multiply by 10 is (x<<1)+(x<<3) with explicit carry
// propagation between the limbs so the result is bit-exact on every
// platform.
func parseInt128(literal string) Token {
	token := make(Token, 16)

	i := 0
	for i < len(literal) && isSpace(literal[i]) {
		i++
	}

	var hi, lo uint64
	for ; i < len(literal); i++ {
		c := literal[i]
		if c < '0' || c > '9' {
			break
		}

		// value *= 10
		hi1 := hi<<1 | lo>>63
		lo1 := lo << 1
		hi3 := hi<<3 | lo>>61
		lo3 := lo << 3
		lo = lo1 + lo3
		hi = hi1 + hi3
		if lo < lo1 {
			hi++
		}

		// value += c - '0'
		d := uint64(c - '0')
		lo += d
		if lo < d {
			hi++
		}
	}

	binary.BigEndian.PutUint64(token[:8], hi)
	binary.BigEndian.PutUint64(token[8:], lo)
	return token
}

// byte-ordered partitioner: the partition key is the token
type byteOrderedPartitioner struct{}

func (p byteOrderedPartitioner) Name() string {
	return "ByteOrderedPartitioner"
}

func (p byteOrderedPartitioner) Hash(keyParts ...[]byte) Token {
	key := joinKeyParts(keyParts)
	token := make(Token, len(key))
	copy(token, key)
	return token
}

func (p byteOrderedPartitioner) ParseToken(literal string) (Token, error) {
	return Token(literal), nil
}

func (p byteOrderedPartitioner) FormatToken(token Token) string {
	return string(token)
}
