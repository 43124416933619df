package models

// RemoteEntity is the server's view of one entity: current data plus the
// version the server will use for precondition checks on the next write.
type RemoteEntity struct {
	EntityType EntityType `json:"entityType"`
	EntityID   string     `json:"entityId"`
	Data       Fields     `json:"data"`
	Version    int64      `json:"version"`
	Deleted    bool       `json:"deleted"`
}

// Exists reports whether the server currently holds a live record.
func (r RemoteEntity) Exists() bool {
	return r.Version > 0 && !r.Deleted
}
