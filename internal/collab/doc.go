// Package collab implements the real-time collaborative editing core.
//
// The package implements:
//   - Registry: owns the active document rooms, created lazily and dropped
//     when their last member leaves
//   - Room: per-document members, last-known content, and cursor/selection
//     presence, guarded by one mutex per room
//   - Client: one WebSocket connection plus identity and a bounded outbound
//     queue
//   - Handler: connection upgrade, read/write pumps, and message routing
//   - Service: content hydration and debounced write-back against the
//     external document store
//
// Key behaviors:
//   - New members receive an init snapshot (content, member count) followed
//     by a replay of current cursors and selections
//   - Content updates are last-write-wins whole-document broadcasts; there
//     is no operational transform or CRDT merging
//   - A member whose delivery fails is treated as implicitly disconnected
//     and evicted through the normal leave path
//   - Presence broadcasts exclude the sender; only ping is answered
//     directly to the sender
package collab
