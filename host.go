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
	"fmt"
	"net"
	"strconv"
)

// HostInfo describes a node of the cluster: its connect address and the
// datacenter and rack labels replica placement consults. Instances are owned
// by the topology layer and shared with the token map by pointer; the map
// never mutates them and treats the labels as immutable. A topology layer
// that relabels a host must remove and re-add it.
type HostInfo struct {
	hostId         string
	connectAddress net.IP
	port           int
	dataCenter     string
	rack           string
	tokens         []string
}

// NewHostInfo creates a host descriptor. tokens is the host's vnode token
// literals as reported by the cluster; it may be left empty and passed to
// UpdateHost explicitly instead.
func NewHostInfo(hostId string, connectAddress net.IP, port int, dataCenter, rack string, tokens ...string) *HostInfo {
	return &HostInfo{
		hostId:         hostId,
		connectAddress: connectAddress,
		port:           port,
		dataCenter:     dataCenter,
		rack:           rack,
		tokens:         tokens,
	}
}

func (h *HostInfo) HostID() string {
	return h.hostId
}

func (h *HostInfo) ConnectAddress() net.IP {
	return h.connectAddress
}

func (h *HostInfo) Port() int {
	return h.port
}

func (h *HostInfo) DataCenter() string {
	return h.dataCenter
}

func (h *HostInfo) Rack() string {
	return h.rack
}

func (h *HostInfo) Tokens() []string {
	return h.tokens
}

// ConnectAddressAndPort is the host's identity within the map: two HostInfo
// values with the same address and port describe the same node.
func (h *HostInfo) ConnectAddressAndPort() string {
	return net.JoinHostPort(h.connectAddress.String(), strconv.Itoa(h.port))
}

func (h *HostInfo) String() string {
	return fmt.Sprintf("[HostInfo hostId=%q connectAddress=%q port=%d data_center=%q rack=%q]",
		h.hostId, h.connectAddress, h.port, h.dataCenter, h.rack)
}

// HostVec is an ordered replica preference list. Vectors handed out by the
// map are shared across ring slots and with concurrent readers, and must be
// treated as immutable.
type HostVec []*HostInfo

// noReplicas is the shared empty vector returned for every query the map
// cannot answer.
var noReplicas = make(HostVec, 0)

func hostsEqual(a, b HostVec) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
