// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cluster

import (
	"context"
	"sort"

	"github.com/matrixorigin/dmlproc/pkg/dmlservice"
)

// StaticMembership is a fixed assignment of partition roots to write
// engines.
type StaticMembership struct {
	nodes []uint32
	roots map[uint32]uint32
}

var _ dmlservice.Membership = (*StaticMembership)(nil)

// NewStaticMembership creates a membership from a dbroot to node map.
// Nodes that own no dbroot still take part in the cluster.
func NewStaticMembership(nodes []uint32, roots map[uint32]uint32) *StaticMembership {
	m := &StaticMembership{
		roots: make(map[uint32]uint32, len(roots)),
	}
	seen := make(map[uint32]struct{})
	add := func(node uint32) {
		if _, ok := seen[node]; !ok {
			seen[node] = struct{}{}
			m.nodes = append(m.nodes, node)
		}
	}
	for _, node := range nodes {
		add(node)
	}
	for root, node := range roots {
		m.roots[root] = node
		add(node)
	}
	sort.Slice(m.nodes, func(i, j int) bool { return m.nodes[i] < m.nodes[j] })
	return m
}

func (m *StaticMembership) ParticipatingNodes(ctx context.Context) ([]uint32, error) {
	return append([]uint32(nil), m.nodes...), nil
}

func (m *StaticMembership) NodeOf(dbRoot uint32) (uint32, bool) {
	node, ok := m.roots[dbRoot]
	return node, ok
}
