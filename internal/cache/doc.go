// Package cache provides LRU caching for blob blocks.
//
// The ShardedLRUBlockCache stores recently accessed blocks of snapshot
// and dataset blobs, so repeated reads against remote object storage
// hit RAM instead of the network. It uses 64-way sharding to keep lock
// contention low under concurrent readers and integrates with the
// resource.Controller for global memory limits.
package cache
