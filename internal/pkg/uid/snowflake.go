package uid

import (
	"github.com/bwmarrin/snowflake"
)

// Snowflake generates 63-bit snowflake IDs.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake builds a generator whose node number is derived from the host identity.
func NewSnowflake() (*Snowflake, error) {
	n, err := nodeNumber(1 << snowflake.NodeBits)
	if err != nil {
		return nil, err
	}

	return NewSnowflakeWithNode(n)
}

// NewSnowflakeWithNode builds a generator for an explicit node number.
func NewSnowflakeWithNode(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: n}, nil
}

// Generate returns the next ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
