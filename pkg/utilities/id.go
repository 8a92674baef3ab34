package utilities

import (
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// IDGenerator hands out int64 snowflake identifiers for accounts and
// seller records. One generator must be shared per process so the node
// sequence is never reset between calls.
type IDGenerator struct {
	node *snowflake.Node
}

// NewIDGenerator creates a generator for the given node. Out-of-range node
// ids fall back to node 1 instead of failing startup.
func NewIDGenerator(nodeID int64) *IDGenerator {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		node, _ = snowflake.NewNode(1)
	}
	return &IDGenerator{node: node}
}

// NewID returns the next snowflake id.
func (g *IDGenerator) NewID() int64 {
	return g.node.Generate().Int64()
}

// NewIDString returns the next id as a decimal string.
func (g *IDGenerator) NewIDString() string {
	return strconv.FormatInt(g.NewID(), 10)
}
