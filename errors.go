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

import "fmt"

// All failures in this package are recovered locally: a malformed token
// literal is skipped, an unknown partitioner leaves the map inert, an
// unknown strategy resolves to empty replicas, and a second SetPartitioner
// with a different class is ignored. The typed errors below are returned
// from the mutating calls so the topology layer can log or count them; the
// query path only ever observes an empty replica vector.

// MalformedTokenError reports a token literal that could not be parsed by
// the active partitioner. The literal is skipped; the rest of the host
// update proceeds.
type MalformedTokenError struct {
	Partitioner string
	Literal     string
	err         error
}

func (e *MalformedTokenError) Error() string {
	return fmt.Sprintf("tokenmap: malformed %s token literal %q: %v", e.Partitioner, e.Literal, e.err)
}

func (e *MalformedTokenError) Unwrap() error {
	return e.err
}

// UnknownPartitionerError reports a partitioner class whose suffix matches
// none of the known partitioners. The map stays partitioner-less and every
// subsequent mutating and query call is a no-op until a known class is set.
type UnknownPartitionerError struct {
	Class string
}

func (e *UnknownPartitionerError) Error() string {
	return fmt.Sprintf("tokenmap: unknown partitioner class %q", e.Class)
}

// UnknownStrategyError reports a replication strategy class whose suffix
// matches none of the known strategies, or strategy options that could not
// be parsed. The keyspace resolves to empty replicas.
type UnknownStrategyError struct {
	Class string
	err   error
}

func (e *UnknownStrategyError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("tokenmap: replication strategy %q: %v", e.Class, e.err)
	}
	return fmt.Sprintf("tokenmap: unknown replication strategy class %q", e.Class)
}

func (e *UnknownStrategyError) Unwrap() error {
	return e.err
}

// PartitionerLockedError reports a SetPartitioner call naming a different
// class after the partitioner has been bound. The call is ignored; the ring
// keeps its original coordinate system for the lifetime of the map.
type PartitionerLockedError struct {
	Current   string
	Requested string
}

func (e *PartitionerLockedError) Error() string {
	return fmt.Sprintf("tokenmap: partitioner already set to %s, ignoring %q", e.Current, e.Requested)
}
