// Package redikit is a thin, typed facade over a Redis-shaped backend:
// key/value reads and writes with TTLs, batch operations, set collections,
// and publish/subscribe.
//
// Components:
//   - store.Store: the backend. Redis via store/redis, in-process via store/local.
//   - codec.Codec: value (de)serialization. JSON by default, lenient on
//     unknown input fields; msgpack and CBOR variants available.
//   - Facade: the operation surface. Package-level GetAs / MembersAs /
//     SubscribeAs add typed reads (methods cannot be generic).
//
// The facade adds no caching policy of its own: no eviction, no retries, no
// connection management, no expiry tracking. Durability, expiry, and
// delivery semantics are entirely the backend's. Every operation issues a
// backend call except the documented empty-input short-circuits.
package redikit
