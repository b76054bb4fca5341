// Package redis stores teamgraph checkpoints in Redis.
//
// Keys are laid out as
//
//	<prefix>checkpoint:<id>          JSON encoded checkpoint
//	<prefix>run:<run id>:checkpoints set of checkpoint IDs
//
// The prefix defaults to "teamgraph:". A TTL, when set, applies to both keys.
//
//	s := redis.NewRedisCheckpointStore(redis.RedisOptions{
//		Addr: "localhost:6379",
//		TTL:  24 * time.Hour,
//	})
package redis
