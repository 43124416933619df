package models

import "time"

// CacheEntity is the local mirror record of one server entity. The UI reads
// it synchronously; the sync engine corrects it as mutations are confirmed.
//
// Invariants, enforced by the cache repository:
//   - LocalVersion >= ServerVersion at all times;
//   - Dirty == false implies LocalVersion == ServerVersion.
type CacheEntity struct {
	EntityType EntityType `json:"entityType"`
	EntityID   string     `json:"entityId"`

	// Data is the current best-known value: the last confirmed server state
	// with any unsynced local writes applied optimistically on top.
	Data Fields `json:"data"`

	// ServerVersion is the last server-confirmed version of the entity.
	ServerVersion int64 `json:"serverVersion"`

	// LocalVersion is incremented on every optimistic local write.
	LocalVersion int64 `json:"localVersion"`

	// Dirty is true while the entity has local changes the server has not
	// confirmed yet.
	Dirty bool `json:"dirty"`

	// Deleted marks a confirmed server-side tombstone. Tombstones are kept so
	// that a late replay of an old mutation can classify against them.
	Deleted bool `json:"deleted"`

	UpdatedAt time.Time `json:"updatedAt"`
}
