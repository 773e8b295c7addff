package idgen

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Initialize sets up the Snowflake ID generator with a node ID
func Initialize(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

func current() *snowflake.Node {
	// No-op when already initialized; otherwise falls back to node 1
	_ = Initialize(1)
	return node
}

// GenerateID generates a new Snowflake ID as a string
func GenerateID() string {
	return current().Generate().String()
}

// GenerateJobID generates a new Snowflake ID for a workflow job.
// Job IDs are numeric on the wire, matching the integer IDs of the REST API.
func GenerateJobID() int64 {
	return current().Generate().Int64()
}
