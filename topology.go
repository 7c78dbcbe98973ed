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
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// KeyspaceMetadata carries the replication settings of a keyspace as
// reported by the cluster's schema tables.
type KeyspaceMetadata struct {
	Name            string
	StrategyClass   string
	StrategyOptions map[string]interface{}
}

type hostTokens struct {
	token Token
	hosts HostVec
}

// tokenRingReplicas is a keyspace's materialised replica map: for every ring
// token, the ordered replica preference list for the range ending at that
// token. Sorted by token ascending.
type tokenRingReplicas []hostTokens

// replicasFor resolves a token to the replica list of its successor slot:
// the smallest ring token strictly greater than token, wrapping around to
// the smallest ring token.
func (h tokenRingReplicas) replicasFor(token Token) HostVec {
	if len(h) == 0 {
		return nil
	}

	p := sort.Search(len(h), func(i int) bool {
		return token.Less(h[i].token)
	})

	if p == len(h) {
		// wrap around to the first in the ring
		p = 0
	}

	return h[p].hosts
}

// placementStrategy materialises the replica map of a keyspace from the ring
// index. Strategies are immutable descriptors; equals compares class and
// parameters so the token map can skip rebuilds on no-op keyspace updates.
type placementStrategy interface {
	tokensToReplicas(tokens []hostToken) tokenRingReplicas
	equals(other placementStrategy) bool
}

func parseReplicationFactor(rf interface{}) (int, error) {
	switch v := rf.(type) {
	case int:
		return v, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, errors.Wrapf(err, "parse replication_factor %q", v)
		}
		return n, nil
	default:
		return 0, errors.Errorf("unsupported replication_factor type %T (%v)", rf, rf)
	}
}

// getStrategy parses a strategy descriptor from keyspace metadata. The class
// is matched by suffix, like the partitioner class. Unknown classes and
// unparseable options produce an inert descriptor whose replica map is
// empty, together with the error that explains why.
func getStrategy(ks *KeyspaceMetadata) (placementStrategy, error) {
	switch {
	case strings.HasSuffix(ks.StrategyClass, "SimpleStrategy"):
		rf, err := parseReplicationFactor(ks.StrategyOptions["replication_factor"])
		if err != nil {
			return &inertStrategy{class: ks.StrategyClass}, &UnknownStrategyError{Class: ks.StrategyClass, err: err}
		}
		return &simpleStrategy{rf: rf}, nil
	case strings.HasSuffix(ks.StrategyClass, "NetworkTopologyStrategy"):
		dcs := make(map[string]int, len(ks.StrategyOptions))
		for dc, rf := range ks.StrategyOptions {
			if dc == "class" {
				continue
			}
			n, err := parseReplicationFactor(rf)
			if err != nil {
				return &inertStrategy{class: ks.StrategyClass}, &UnknownStrategyError{Class: ks.StrategyClass, err: err}
			}
			dcs[dc] = n
		}
		return &networkTopology{dcs: dcs}, nil
	default:
		return &inertStrategy{class: ks.StrategyClass}, &UnknownStrategyError{Class: ks.StrategyClass}
	}
}

// internReplicas shares one HostVec across adjacent ring slots whose replica
// lists came out identical, which is the common case on rings with few
// hosts and many vnodes.
func internReplicas(prev, cur HostVec) HostVec {
	if prev != nil && hostsEqual(prev, cur) {
		return prev
	}
	return cur
}

type simpleStrategy struct {
	rf int
}

func (s *simpleStrategy) equals(other placementStrategy) bool {
	o, ok := other.(*simpleStrategy)
	return ok && o.rf == s.rf
}

// For each ring slot, walk the ring from the slot's token inclusive with
// wraparound and collect distinct hosts until rf are found or the ring is
// exhausted.
func (s *simpleStrategy) tokensToReplicas(tokens []hostToken) tokenRingReplicas {
	ring := make(tokenRingReplicas, 0, len(tokens))

	var prev HostVec
	for i := range tokens {
		replicas := make(HostVec, 0, s.rf)
		seen := make(map[string]struct{}, s.rf)

		for j := 0; j < len(tokens) && len(replicas) < s.rf; j++ {
			h := tokens[(i+j)%len(tokens)].host
			addr := h.ConnectAddressAndPort()
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			replicas = append(replicas, h)
		}

		replicas = internReplicas(prev, replicas)
		prev = replicas
		ring = append(ring, hostTokens{token: tokens[i].token, hosts: replicas})
	}

	return ring
}

type networkTopology struct {
	dcs map[string]int
}

func (n *networkTopology) equals(other placementStrategy) bool {
	o, ok := other.(*networkTopology)
	if !ok || len(o.dcs) != len(n.dcs) {
		return false
	}
	for dc, rf := range n.dcs {
		orf, ok := o.dcs[dc]
		if !ok || orf != rf {
			return false
		}
	}
	return true
}

// For each ring slot, walk the ring from the slot's token inclusive with
// wraparound. A host is accepted when its datacenter has a configured
// replication factor that is not yet met and either its rack has not been
// used for this slot yet or every rack of the datacenter is already
// represented. Hosts passed over for their rack are kept and, once every
// rack of their datacenter is represented, appended in walk order until the
// factor is met. The walk stops once every configured datacenter is full or
// the ring has been fully traversed.
func (n *networkTopology) tokensToReplicas(tokens []hostToken) tokenRingReplicas {
	ring := make(tokenRingReplicas, 0, len(tokens))

	// distinct racks per datacenter across the whole ring
	dcRacks := make(map[string]map[string]struct{}, len(n.dcs))
	for _, th := range tokens {
		dc := th.host.DataCenter()
		racks, ok := dcRacks[dc]
		if !ok {
			racks = make(map[string]struct{})
			dcRacks[dc] = racks
		}
		racks[th.host.Rack()] = struct{}{}
	}

	totalRF := 0
	for _, rf := range n.dcs {
		totalRF += rf
	}

	var prev HostVec
	for i := range tokens {
		replicas := make(HostVec, 0, totalRF)
		seenHosts := make(map[string]struct{}, totalRF)
		counts := make(map[string]int, len(n.dcs))
		seenRacks := make(map[string]map[string]struct{}, len(n.dcs))
		skipped := make(map[string]HostVec, len(n.dcs))
		full := 0

		for j := 0; j < len(tokens) && full < len(n.dcs); j++ {
			h := tokens[(i+j)%len(tokens)].host
			dc := h.DataCenter()

			rf, ok := n.dcs[dc]
			if !ok || counts[dc] >= rf {
				continue
			}

			addr := h.ConnectAddressAndPort()
			if _, ok := seenHosts[addr]; ok {
				continue
			}
			seenHosts[addr] = struct{}{}

			racks := seenRacks[dc]
			if racks == nil {
				racks = make(map[string]struct{}, rf)
				seenRacks[dc] = racks
			}
			if _, ok := racks[h.Rack()]; ok && len(racks) < len(dcRacks[dc]) {
				// another rack of this datacenter is still unrepresented
				skipped[dc] = append(skipped[dc], h)
				continue
			}

			replicas = append(replicas, h)
			racks[h.Rack()] = struct{}{}
			counts[dc]++
			if len(racks) == len(dcRacks[dc]) {
				// every rack is represented: hosts passed over follow in walk order
				for ; len(skipped[dc]) > 0 && counts[dc] < rf; skipped[dc] = skipped[dc][1:] {
					replicas = append(replicas, skipped[dc][0])
					counts[dc]++
				}
			}
			if counts[dc] == rf {
				full++
			}
		}

		replicas = internReplicas(prev, replicas)
		prev = replicas
		ring = append(ring, hostTokens{token: tokens[i].token, hosts: replicas})
	}

	return ring
}

// inertStrategy is the descriptor an unknown strategy class parses into. Its
// replica map is empty, which makes every query on the keyspace resolve to
// the shared empty vector.
type inertStrategy struct {
	class string
}

func (s *inertStrategy) equals(other placementStrategy) bool {
	o, ok := other.(*inertStrategy)
	return ok && o.class == s.class
}

func (s *inertStrategy) tokensToReplicas([]hostToken) tokenRingReplicas {
	return nil
}
