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
	"testing"
)

func ringOf(tokens map[string]*HostInfo) *tokenRing {
	r := &tokenRing{}
	for literal, host := range tokens {
		r.insert(Token(literal), host)
	}
	return r
}

func ringTokens(r *tokenRing) []string {
	tokens := make([]string, len(r.tokens))
	for i, ht := range r.tokens {
		tokens[i] = string(ht.token)
	}
	return tokens
}

func TestTokenRingInsertSorted(t *testing.T) {
	hosts := hostsForTests(4)

	// inserted out of order to exercise the sorted insert
	r := ringOf(map[string]*HostInfo{
		"50": hosts[2],
		"00": hosts[0],
		"75": hosts[3],
		"25": hosts[1],
	})

	assertDeepEqual(t, "ring tokens", []string{"00", "25", "50", "75"}, ringTokens(r))
}

func TestTokenRingInsertOverwrites(t *testing.T) {
	hosts := hostsForTests(2)

	r := &tokenRing{}
	r.insert(Token("42"), hosts[0])
	r.insert(Token("42"), hosts[1])

	assertEqual(t, "ring length", 1, len(r.tokens))
	assertEqual(t, "owner", hosts[1], r.tokens[0].host)
}

func TestTokenRingPurgeHost(t *testing.T) {
	hosts := hostsForTests(2)

	r := &tokenRing{}
	r.insert(Token("00"), hosts[0])
	r.insert(Token("25"), hosts[1])
	r.insert(Token("50"), hosts[0])
	r.insert(Token("75"), hosts[1])

	assertTrue(t, "purge removed entries", r.purgeHost(hosts[0].ConnectAddressAndPort()))
	assertDeepEqual(t, "remaining tokens", []string{"25", "75"}, ringTokens(r))

	assertTrue(t, "purge of absent host is a no-op", !r.purgeHost(hosts[0].ConnectAddressAndPort()))
	assertDeepEqual(t, "remaining tokens", []string{"25", "75"}, ringTokens(r))
}

// Test of the ring range lookup based on the example at the start of this
// page of documentation:
// http://www.datastax.com/docs/0.8/cluster_architecture/partitioning
func TestPrimaryHostForToken(t *testing.T) {
	hosts := hostsForTests(4)

	r := ringOf(map[string]*HostInfo{
		"00": hosts[0],
		"25": hosts[1],
		"50": hosts[2],
		"75": hosts[3],
	})

	for _, tc := range []struct {
		token string
		host  *HostInfo
		end   string
	}{
		{"00", hosts[0], "00"},
		{"01", hosts[1], "25"},
		{"24", hosts[1], "25"},
		{"25", hosts[1], "25"},
		{"26", hosts[2], "50"},
		{"49", hosts[2], "50"},
		{"50", hosts[2], "50"},
		{"51", hosts[3], "75"},
		{"74", hosts[3], "75"},
		{"75", hosts[3], "75"},
		{"76", hosts[0], "00"},
		{"99", hosts[0], "00"},
	} {
		host, endToken := primaryHostForToken(r.tokens, Token(tc.token))
		if host != tc.host || string(endToken) != tc.end {
			t.Errorf("expected host %v end %q for token %q, got %v end %q",
				tc.host, tc.end, tc.token, host, endToken)
		}
	}
}

func TestPrimaryHostForTokenEmptyRing(t *testing.T) {
	host, endToken := primaryHostForToken(nil, Token("00"))
	assertTrue(t, "no host for an empty ring", host == nil && endToken == nil)
}
