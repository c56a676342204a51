// Package redis connects the go-redis client that backs the distributed
// per-user billing lease.
//
//	if cfg.Enabled() {
//		client, err := redis.Connect(ctx, cfg)
//		...
//		locker = lease.NewRedis(client)
//	}
package redis
