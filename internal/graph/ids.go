package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// Identifier prefixes. Regular and super prefixes are disjoint so that
// regular node i and super node i never collide.
const (
	prefixRegular = "n"
	prefixSuper   = "s"
	prefixEdge    = "edge"
)

// NodeID creates the deterministic node ID for a kind and index.
// Format: n{index} or s{index}
func NodeID(kind NodeKind, index int) string {
	if kind == NodeSuper {
		return prefixSuper + strconv.Itoa(index)
	}
	return prefixRegular + strconv.Itoa(index)
}

// ParseNodeID is the inverse of NodeID.
func ParseNodeID(id string) (NodeKind, int, error) {
	if len(id) < 2 {
		return "", 0, fmt.Errorf("invalid node id %q", id)
	}

	var kind NodeKind
	switch id[:1] {
	case prefixRegular:
		kind = NodeRegular
	case prefixSuper:
		kind = NodeSuper
	default:
		return "", 0, fmt.Errorf("invalid node id %q: unknown prefix", id)
	}

	index, err := parseIndex(id[1:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid node id %q: %w", id, err)
	}
	return kind, index, nil
}

// EdgeID creates the deterministic edge ID for a source/target pair.
// Format: edge{source}{target}, e.g. edges0s1, edges2n17, edgen3n9.
func EdgeID(source, target string) string {
	return prefixEdge + source + target
}

// ParseEdgeID is the inverse of EdgeID. Node IDs are a letter followed by
// digits, so the split point is the second letter after the prefix.
func ParseEdgeID(id string) (source, target string, err error) {
	rest, ok := strings.CutPrefix(id, prefixEdge)
	if !ok || len(rest) < 4 {
		return "", "", fmt.Errorf("invalid edge id %q", id)
	}

	split := strings.IndexAny(rest[1:], prefixRegular+prefixSuper)
	if split < 0 {
		return "", "", fmt.Errorf("invalid edge id %q: missing target", id)
	}
	source, target = rest[:split+1], rest[split+1:]

	if _, _, err := ParseNodeID(source); err != nil {
		return "", "", fmt.Errorf("invalid edge id %q: %w", id, err)
	}
	if _, _, err := ParseNodeID(target); err != nil {
		return "", "", fmt.Errorf("invalid edge id %q: %w", id, err)
	}
	return source, target, nil
}

// parseIndex accepts only canonical non-negative decimal indices so that
// ParseNodeID(NodeID(k, i)) round trips and "n07" is rejected.
func parseIndex(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("missing index")
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, fmt.Errorf("non-canonical index %q", s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-numeric index %q", s)
		}
	}
	return strconv.Atoi(s)
}
