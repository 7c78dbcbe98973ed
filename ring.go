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
	"sort"
	"strconv"
)

type hostToken struct {
	token Token
	host  *HostInfo
}

func (ht hostToken) String() string {
	return "{token=" + ht.token.String() + " host=" + ht.host.ConnectAddressAndPort() + "}"
}

// tokenRing is the ring index: a mapping from token to owning host kept
// sorted by token. Tokens are unique; inserting an existing token replaces
// its owner. The ring is only ever touched by the writer; readers see
// immutable snapshots of the tokens slice published by the token map.
type tokenRing struct {
	// The range for a given item in tokens starts after the preceding
	// token and ends with, and includes, the token at the current position.
	// The lowest range wraps around the ring.
	tokens []hostToken
}

// insert installs token -> host, replacing the owner if the token is
// already present.
func (r *tokenRing) insert(token Token, host *HostInfo) {
	p := sort.Search(len(r.tokens), func(i int) bool {
		return !r.tokens[i].token.Less(token)
	})

	if p < len(r.tokens) && r.tokens[p].token.Equal(token) {
		r.tokens[p].host = host
		return
	}

	r.tokens = append(r.tokens, hostToken{})
	copy(r.tokens[p+1:], r.tokens[p:])
	r.tokens[p] = hostToken{token: token, host: host}
}

// purgeHost erases every entry owned by the host with the given address.
// Reports whether anything was removed.
func (r *tokenRing) purgeHost(addr string) bool {
	kept := r.tokens[:0]
	for _, ht := range r.tokens {
		if ht.host.ConnectAddressAndPort() != addr {
			kept = append(kept, ht)
		}
	}

	purged := len(kept) != len(r.tokens)
	for i := len(kept); i < len(r.tokens); i++ {
		r.tokens[i] = hostToken{}
	}
	r.tokens = kept
	return purged
}

func (r *tokenRing) snapshot() []hostToken {
	if len(r.tokens) == 0 {
		return nil
	}
	tokens := make([]hostToken, len(r.tokens))
	copy(tokens, r.tokens)
	return tokens
}

// primaryHostForToken returns the host owning the range the token falls in:
// the owner of the smallest ring token >= token, wrapping around to the
// smallest ring token.
func primaryHostForToken(tokens []hostToken, token Token) (host *HostInfo, endToken Token) {
	if len(tokens) == 0 {
		return nil, nil
	}

	p := sort.Search(len(tokens), func(i int) bool {
		return !tokens[i].token.Less(token)
	})

	if p == len(tokens) {
		// wrap around to the first in the ring
		p = 0
	}

	v := tokens[p]
	return v.host, v.token
}

func formatRing(buf *bytes.Buffer, tokens []hostToken, p partitioner) {
	sep := ""
	for i, th := range tokens {
		buf.WriteString(sep)
		sep = ","
		buf.WriteString("\n\t[")
		buf.WriteString(strconv.Itoa(i))
		buf.WriteString("]")
		if p != nil {
			buf.WriteString(p.FormatToken(th.token))
		} else {
			buf.WriteString(th.token.String())
		}
		buf.WriteString(":")
		buf.WriteString(th.host.ConnectAddressAndPort())
	}
}
