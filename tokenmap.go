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

// Package tokenmap resolves a partition key to the ordered list of replica
// hosts responsible for it, without a round trip to the cluster. It is fed
// topology events (hosts joining, moving and leaving, keyspaces altered and
// dropped) by a schema/gossip subscription and queried by the driver's
// query planner.
package tokenmap

import (
	"bytes"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ErrNoPartitioner is returned by calls that need the partitioner before
// SetPartitioner has bound one.
var ErrNoPartitioner = errors.New("tokenmap: no partitioner set")

// tokenMapMeta is the read side of the token map. It is published through
// an atomic.Value and shallow copies are used when replacing it, so fields
// must never be modified in place: to change one, build a new value and
// store it.
type tokenMapMeta struct {
	partitioner partitioner
	// ring snapshot, sorted by token ascending
	tokens []hostToken
	// replicas is map[keyspace]map[token]hosts
	replicas map[string]tokenRingReplicas
}

// TokenMap maintains the ring index and the per-keyspace replica maps.
//
// It is written by a single topology-event goroutine and read by many
// request goroutines. Writes go through mu; reads load an immutable
// snapshot and never block, so a reader observes either the pre-update or
// the post-update version of every keyspace, never a torn intermediate.
type TokenMap struct {
	// mu protects writes to the fields below. Reads go through meta.
	mu              sync.Mutex
	partitioner     partitioner
	ring            tokenRing
	mappedAddresses map[string]struct{}
	strategies      map[string]placementStrategy
	replicas        map[string]tokenRingReplicas
	built           bool

	meta atomic.Value // *tokenMapMeta

	logger internalLogger
}

// Option configures a TokenMap at construction.
type Option func(*TokenMap)

// WithLogger directs the map's diagnostics to a print-style logger,
// filtered at the given level.
func WithLogger(logger StdLogger, level LogLevel) Option {
	return func(t *TokenMap) {
		t.logger = newInternalLoggerFromStdLogger(logger, level)
	}
}

// WithAdvancedLogger directs the map's diagnostics to a structured logger,
// filtered at the given level. See NewZapLogger.
func WithAdvancedLogger(logger AdvancedLogger, level LogLevel) Option {
	return func(t *TokenMap) {
		t.logger = newInternalLoggerFromAdvancedLogger(logger, level)
	}
}

// NewTokenMap creates an empty, partitioner-less token map. By default the
// map is silent; pass WithLogger or WithAdvancedLogger to see the errors it
// recovers from.
func NewTokenMap(opts ...Option) *TokenMap {
	t := &TokenMap{
		mappedAddresses: make(map[string]struct{}),
		strategies:      make(map[string]placementStrategy),
		replicas:        make(map[string]tokenRingReplicas),
		logger:          nilInternalLogger,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.publishLocked()
	return t
}

// SetPartitioner binds the partitioner from its fully-qualified class name,
// matched by suffix. The first successful call is final: a later call with
// a different class returns a *PartitionerLockedError and changes nothing.
// An unknown class leaves the map partitioner-less, which makes every
// mutating and query call a no-op until a known class is set.
func (t *TokenMap) SetPartitioner(partitionerClass string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := partitionerForClass(partitionerClass)

	if t.partitioner != nil {
		if p != nil && p.Name() == t.partitioner.Name() {
			return nil
		}
		err := &PartitionerLockedError{Current: t.partitioner.Name(), Requested: partitionerClass}
		t.logger.Warning("tokenmap: ignoring partitioner change from %s to %q",
			NewLogField("current", t.partitioner.Name()),
			NewLogField("requested", partitionerClass))
		return err
	}

	if p == nil {
		t.logger.Warning("tokenmap: unknown partitioner class %q, map disabled",
			NewLogField("class", partitionerClass))
		return &UnknownPartitionerError{Class: partitionerClass}
	}

	t.partitioner = p
	t.publishLocked()
	return nil
}

// UpdateHost installs or moves a host: every ring entry held by the host's
// address is purged, then each token literal is parsed and installed.
// Malformed literals are skipped and reported in the returned error; the
// rest of the update proceeds. Reports whether the update was applied: true
// whenever a partitioner is bound, also when the ring comes out unchanged.
//
// Purge-and-reinsert is used instead of a diff because host updates only
// happen for new or moved hosts, and moves only occur on non-vnode rings,
// which are small.
func (t *TokenMap) UpdateHost(host *HostInfo, tokenLiterals []string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.partitioner == nil {
		return false, nil
	}

	addr := host.ConnectAddressAndPort()
	t.purgeAddressLocked(addr)

	var errs error
	for _, literal := range tokenLiterals {
		token, err := t.partitioner.ParseToken(literal)
		if err != nil {
			t.logger.Warning("tokenmap: skipping malformed token literal %q of host %s",
				NewLogField("literal", literal),
				NewLogField("host", addr))
			errs = multierr.Append(errs, errors.Wrapf(err, "host %s", addr))
			continue
		}
		t.ring.insert(token, host)
	}
	t.mappedAddresses[addr] = struct{}{}

	t.mapReplicasLocked()
	t.publishLocked()
	return true, errs
}

// RemoveHost purges every ring entry held by the host's address. Reports
// whether the map changed.
func (t *TokenMap) RemoveHost(host *HostInfo) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.partitioner == nil {
		return false
	}

	if !t.purgeAddressLocked(host.ConnectAddressAndPort()) {
		return false
	}

	t.mapReplicasLocked()
	t.publishLocked()
	return true
}

// UpdateKeyspace parses a strategy descriptor from the keyspace metadata
// and, if it differs from the stored one, recomputes the keyspace's replica
// map. An unknown strategy class stores an inert descriptor that resolves
// every query on the keyspace to the empty vector; the returned error says
// why. Reports whether the stored descriptor changed.
func (t *TokenMap) UpdateKeyspace(ks *KeyspaceMetadata) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.partitioner == nil {
		return false, nil
	}

	strategy, err := getStrategy(ks)
	if err != nil {
		t.logger.Warning("tokenmap: keyspace %s resolves to no replicas: %v",
			NewLogField("keyspace", ks.Name),
			NewLogField("error", err))
	}

	if current, ok := t.strategies[ks.Name]; ok && current.equals(strategy) {
		return false, err
	}

	t.strategies[ks.Name] = strategy
	t.mapKeyspaceReplicasLocked(ks.Name, strategy)
	t.publishLocked()
	return true, err
}

// DropKeyspace erases the keyspace's strategy and replica map. Reports
// whether the keyspace was known.
func (t *TokenMap) DropKeyspace(keyspace string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.partitioner == nil {
		return false
	}

	if _, ok := t.strategies[keyspace]; !ok {
		return false
	}
	delete(t.strategies, keyspace)
	delete(t.replicas, keyspace)

	t.publishLocked()
	return true
}

// Build materialises the replica maps of every known keyspace. The topology
// layer calls it once the first consistent snapshot of hosts and keyspaces
// has been delivered; before that, mutations update the ring and strategy
// state but replica materialisation is deferred and every query returns the
// empty vector. After Build, every mutation recomputes the affected maps.
func (t *TokenMap) Build() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.partitioner == nil {
		return
	}

	t.built = true
	t.mapReplicasLocked()
	t.publishLocked()
}

// Clear returns the map to the empty, partitioner-less, unbuilt state.
func (t *TokenMap) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.partitioner = nil
	t.ring = tokenRing{}
	t.mappedAddresses = make(map[string]struct{})
	t.strategies = make(map[string]placementStrategy)
	t.replicas = make(map[string]tokenRingReplicas)
	t.built = false
	t.publishLocked()
}

// purgeAddressLocked removes the address from the mapped set and erases
// every ring entry owned by it. Reports whether anything was removed.
func (t *TokenMap) purgeAddressLocked(addr string) bool {
	if _, ok := t.mappedAddresses[addr]; !ok {
		return false
	}
	t.ring.purgeHost(addr)
	delete(t.mappedAddresses, addr)
	return true
}

// mapReplicasLocked recomputes every keyspace's replica map. Deferred until
// Build has been called.
func (t *TokenMap) mapReplicasLocked() {
	if !t.built {
		return
	}
	replicas := make(map[string]tokenRingReplicas, len(t.strategies))
	for ks, strategy := range t.strategies {
		replicas[ks] = strategy.tokensToReplicas(t.ring.tokens)
	}
	t.replicas = replicas
}

func (t *TokenMap) mapKeyspaceReplicasLocked(keyspace string, strategy placementStrategy) {
	if !t.built {
		return
	}
	t.replicas[keyspace] = strategy.tokensToReplicas(t.ring.tokens)
}

// publishLocked stores a fresh snapshot for readers. The replica map values
// are immutable once built, so sharing them between snapshots is safe; only
// the top-level map is copied.
func (t *TokenMap) publishLocked() {
	replicas := make(map[string]tokenRingReplicas, len(t.replicas))
	for ks, r := range t.replicas {
		replicas[ks] = r
	}
	t.meta.Store(&tokenMapMeta{
		partitioner: t.partitioner,
		tokens:      t.ring.snapshot(),
		replicas:    replicas,
	})
}

// metaReadOnly returns the current snapshot. It must only be used for
// reading; writers start from the mu-protected fields instead.
func (t *TokenMap) metaReadOnly() *tokenMapMeta {
	meta, _ := t.meta.Load().(*tokenMapMeta)
	return meta
}

// GetReplicas hashes the partition key parts with the bound partitioner and
// returns the replica preference list of the ring range the key falls in.
// The shared empty vector is returned if no partitioner is set, the
// keyspace is unknown, or the map has not been built. The returned vector
// is shared and must not be modified.
func (t *TokenMap) GetReplicas(keyspace string, keyParts ...[]byte) HostVec {
	meta := t.metaReadOnly()
	if meta == nil || meta.partitioner == nil {
		return noReplicas
	}

	replicas, ok := meta.replicas[keyspace]
	if !ok {
		return noReplicas
	}

	token := meta.partitioner.Hash(keyParts...)
	if hosts := replicas.replicasFor(token); hosts != nil {
		return hosts
	}
	return noReplicas
}

// GetReplicasForToken is GetReplicas for a token that has already been
// parsed or hashed, the path a query planner takes when it holds a routing
// token instead of key parts.
func (t *TokenMap) GetReplicasForToken(keyspace string, token Token) HostVec {
	meta := t.metaReadOnly()
	if meta == nil || meta.partitioner == nil {
		return noReplicas
	}

	replicas, ok := meta.replicas[keyspace]
	if !ok {
		return noReplicas
	}

	if hosts := replicas.replicasFor(token); hosts != nil {
		return hosts
	}
	return noReplicas
}

// ParseToken parses the cluster's textual token representation with the
// bound partitioner.
func (t *TokenMap) ParseToken(literal string) (Token, error) {
	meta := t.metaReadOnly()
	if meta == nil || meta.partitioner == nil {
		return nil, ErrNoPartitioner
	}
	return meta.partitioner.ParseToken(literal)
}

// FormatToken renders a token in the cluster's textual representation, the
// inverse of ParseToken.
func (t *TokenMap) FormatToken(token Token) (string, error) {
	meta := t.metaReadOnly()
	if meta == nil || meta.partitioner == nil {
		return "", ErrNoPartitioner
	}
	return meta.partitioner.FormatToken(token), nil
}

// Partitioner returns the class name of the bound partitioner, or the empty
// string if none is bound.
func (t *TokenMap) Partitioner() string {
	meta := t.metaReadOnly()
	if meta == nil || meta.partitioner == nil {
		return ""
	}
	return meta.partitioner.Name()
}

// Tokens returns the sorted ring tokens. The token at index i ends the
// range that starts after the token at index i-1; the lowest range wraps
// around the ring.
func (t *TokenMap) Tokens() []Token {
	meta := t.metaReadOnly()
	if meta == nil || len(meta.tokens) == 0 {
		return nil
	}

	tokens := make([]Token, len(meta.tokens))
	for i := range meta.tokens {
		tokens[i] = meta.tokens[i].token
	}
	return tokens
}

// PrimaryHostForToken returns the host owning the ring range the token
// falls in, together with the range's end token.
func (t *TokenMap) PrimaryHostForToken(token Token) (*HostInfo, Token) {
	meta := t.metaReadOnly()
	if meta == nil {
		return nil, nil
	}
	return primaryHostForToken(meta.tokens, token)
}

func (t *TokenMap) String() string {
	meta := t.metaReadOnly()

	buf := &bytes.Buffer{}
	buf.WriteString("TokenMap(")
	if meta != nil && meta.partitioner != nil {
		buf.WriteString(meta.partitioner.Name())
	}
	buf.WriteString("){")
	if meta != nil {
		formatRing(buf, meta.tokens, meta.partitioner)
	}
	buf.WriteString("\n}")
	return buf.String()
}
