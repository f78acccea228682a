// Package memory provides the session-scoped conversational memory engine.
//
// For each session id it maintains an append-only log of conversation turns
// together with a flat vector index over their embeddings. On every query it
// can reconstruct a bounded context block that merges the most recent turns
// with the most semantically similar ones.
//
// Architecture:
//   - VectorIndex: exact nearest-neighbor search over L2-normalized vectors
//   - SessionStore: registry of per-session turn logs + indexes, safe for
//     concurrent use across request handlers
//   - Embedder: text-to-vector conversion (mock for testing, ONNX for local,
//     API-based embedders for production)
//
// Sessions are created lazily on first write, wiped or dropped on demand,
// and live only for the lifetime of the process. The 1:1 alignment between
// the turn log and the index is maintained under a per-session lock.
package memory
