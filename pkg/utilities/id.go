package utilities

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// NewUUID returns a random (v4) UUID string.
func NewUUID() string {
	return uuid.NewString()
}

// NewSnowflakeID generates a snowflake ID string using a node ID from
// the environment variable SNOWFLAKE_NODE. The node is created once per
// process so IDs minted in the same millisecond stay unique.
func NewSnowflakeID() string {
	nodeOnce.Do(func() {
		node = newNode(nodeIDFromEnv())
	})
	return node.Generate().String()
}

func nodeIDFromEnv() int64 {
	nodeEnv := os.Getenv("SNOWFLAKE_NODE")
	if nodeEnv == "" {
		return 1
	}
	nodeID, err := strconv.ParseInt(nodeEnv, 10, 64)
	if err != nil {
		return 1
	}
	return nodeID
}

// newNode falls back to node 1 when nodeID is outside the snowflake node range.
func newNode(nodeID int64) *snowflake.Node {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		n, _ = snowflake.NewNode(1)
	}
	return n
}
