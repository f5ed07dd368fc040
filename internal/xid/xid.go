package xid

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator hands out time-ordered record ids. Ids from one node never collide.
type Generator struct {
	node *snowflake.Node
}

func NewGenerator(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &Generator{node: node}, nil
}

func (g *Generator) Next() int64 {
	return g.node.Generate().Int64()
}
