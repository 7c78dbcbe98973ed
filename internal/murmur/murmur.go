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

// Package murmur implements the Murmur3 x64 128-bit hash the way Cassandra
// computes it. Cassandra sign-extends the tail bytes (Java bytes are signed),
// so a generic Murmur3 implementation produces different values for inputs
// whose tail contains bytes >= 0x80. Only h1 is returned; the partitioner
// discards h2.
package murmur

const (
	c1 int64 = -8663945395140668459 // 0x87c37b91114253d5
	c2 int64 = 5545529020109919103  // 0x4cf5ad432745937f
)

func fmix(n int64) int64 {
	// 64bit finalizer
	n ^= int64(uint64(n) >> 33)
	n *= -49064778989728563 // 0xff51afd7ed558ccd
	n ^= int64(uint64(n) >> 33)
	n *= -4265267296055464877 // 0xc4ceb9fe1a85ec53
	n ^= int64(uint64(n) >> 33)

	return n
}

func rotl(x int64, r uint8) int64 {
	// cast x as a uint64 to get a logical shift right
	return (x << r) | (int64)((uint64(x) >> (64 - r)))
}

// Murmur3H1 returns h1, the first 64-bit half (the low half when the output
// is read little-endian) of the Murmur3 x64 128-bit hash of data with a zero
// seed.
func Murmur3H1(data []byte) int64 {
	length := len(data)

	var h1, h2, k1, k2 int64

	// body
	nBlocks := length / 16
	for i := 0; i < nBlocks; i++ {
		k1, k2 = getBlock(data, i)

		k1 *= c1
		k1 = rotl(k1, 31)
		k1 *= c2
		h1 ^= k1

		h1 = rotl(h1, 27)
		h1 += h2
		h1 = h1*5 + 0x52dce729

		k2 *= c2
		k2 = rotl(k2, 33)
		k2 *= c1
		h2 ^= k2

		h2 = rotl(h2, 31)
		h2 += h1
		h2 = h2*5 + 0x38495ab5
	}

	// tail
	tail := data[nBlocks*16:]
	k1 = 0
	k2 = 0
	switch length & 15 {
	case 15:
		k2 ^= int64(int8(tail[14])) << 48
		fallthrough
	case 14:
		k2 ^= int64(int8(tail[13])) << 40
		fallthrough
	case 13:
		k2 ^= int64(int8(tail[12])) << 32
		fallthrough
	case 12:
		k2 ^= int64(int8(tail[11])) << 24
		fallthrough
	case 11:
		k2 ^= int64(int8(tail[10])) << 16
		fallthrough
	case 10:
		k2 ^= int64(int8(tail[9])) << 8
		fallthrough
	case 9:
		k2 ^= int64(int8(tail[8]))

		k2 *= c2
		k2 = rotl(k2, 33)
		k2 *= c1
		h2 ^= k2

		fallthrough
	case 8:
		k1 ^= int64(int8(tail[7])) << 56
		fallthrough
	case 7:
		k1 ^= int64(int8(tail[6])) << 48
		fallthrough
	case 6:
		k1 ^= int64(int8(tail[5])) << 40
		fallthrough
	case 5:
		k1 ^= int64(int8(tail[4])) << 32
		fallthrough
	case 4:
		k1 ^= int64(int8(tail[3])) << 24
		fallthrough
	case 3:
		k1 ^= int64(int8(tail[2])) << 16
		fallthrough
	case 2:
		k1 ^= int64(int8(tail[1])) << 8
		fallthrough
	case 1:
		k1 ^= int64(int8(tail[0]))

		k1 *= c1
		k1 = rotl(k1, 31)
		k1 *= c2
		h1 ^= k1
	}

	// finalization
	h1 ^= int64(length)
	h2 ^= int64(length)

	h1 += h2
	h2 += h1

	h1 = fmix(h1)
	h2 = fmix(h2)

	h1 += h2
	// the caller only needs h1, so the final h2 += h1 is skipped

	return h1
}
