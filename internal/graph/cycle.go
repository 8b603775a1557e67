package graph

import (
	"fmt"
	"strings"
)

// CycleInfo describes aggregation nodes that can never be reached from a
// root because they sit on, or beneath, an aggregation cycle.
type CycleInfo struct {
	TotalNodes       int      // nodes that take part in any aggregation
	UnprocessedNodes []string // nodes left with a non-zero in-degree
	CyclePath        []string // one cycle, first node repeated at the end
}

// CycleError reports an aggregation cycle. Well-formed IFC files never
// contain one; chunk assembly stays finite regardless.
type CycleError struct {
	Info *CycleInfo
}

func (e *CycleError) Error() string {
	msg := fmt.Sprintf("aggregation cycle: %d of %d entities are unreachable from a root",
		len(e.Info.UnprocessedNodes), e.Info.TotalNodes)
	if len(e.Info.CyclePath) > 0 {
		msg += fmt.Sprintf("\nCycle path: %s", strings.Join(e.Info.CyclePath, " -> "))
	}
	return msg
}

// CheckAggregationCycles runs Kahn's algorithm over the aggregation edges
// and returns a *CycleError when some nodes cannot be ordered.
func (g *Graph) CheckAggregationCycles() error {
	nodes := g.aggregationNodes.list()

	inDegree := make(map[string]int, len(nodes))
	for _, n := range nodes {
		inDegree[n] = len(g.ParentsOf(n))
	}

	var queue []string
	for _, n := range nodes {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	processed := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		processed++
		for _, child := range g.ChildrenOf(n) {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if processed == len(nodes) {
		return nil
	}

	info := &CycleInfo{TotalNodes: len(nodes)}
	remaining := make(map[string]bool)
	for _, n := range nodes {
		if inDegree[n] > 0 {
			info.UnprocessedNodes = append(info.UnprocessedNodes, n)
			remaining[n] = true
		}
	}
	for _, n := range info.UnprocessedNodes {
		if path := g.findCyclePath(n, remaining); path != nil {
			info.CyclePath = path
			break
		}
	}
	return &CycleError{Info: info}
}

// findCyclePath returns a path from start back to itself through allowed
// nodes, or nil.
func (g *Graph) findCyclePath(start string, allowed map[string]bool) []string {
	visited := make(map[string]bool)
	path := []string{start}
	if g.dfsFindPath(start, start, visited, allowed, &path) {
		return path
	}
	return nil
}

func (g *Graph) dfsFindPath(current, target string, visited, allowed map[string]bool, path *[]string) bool {
	for _, child := range g.ChildrenOf(current) {
		if !allowed[child] {
			continue
		}
		if child == target {
			*path = append(*path, target)
			return true
		}
		if visited[child] {
			continue
		}
		visited[child] = true
		*path = append(*path, child)
		if g.dfsFindPath(child, target, visited, allowed, path) {
			return true
		}
		*path = (*path)[:len(*path)-1]
	}
	return false
}
