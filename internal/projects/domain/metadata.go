package domain

// MetadataEntry is the lightweight projection of a Project kept in the owner's
// users row for cheap listing.
type MetadataEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Template  string `json:"template"`
	UpdatedAt int64  `json:"updatedAt"`
}

// EntryFor projects a Project onto its metadata entry.
func EntryFor(p *Project) MetadataEntry {
	return MetadataEntry{
		ID:        p.ID,
		Name:      p.Name,
		Template:  p.Template,
		UpdatedAt: p.UpdatedAt,
	}
}

// Metadata is a user's ordered list of entries, newest-created first and unique by id.
// The transforms below return a new slice and never modify the receiver.
type Metadata []MetadataEntry

// IndexOf returns the position of the entry with the given id, or -1.
func (m Metadata) IndexOf(id string) int {
	for i := range m {
		if m[i].ID == id {
			return i
		}
	}
	return -1
}

// PrependOrReplace replaces the entry with the same id in place, or inserts
// e at the front when there is none.
func (m Metadata) PrependOrReplace(e MetadataEntry) Metadata {
	if i := m.IndexOf(e.ID); i >= 0 {
		out := m.clone()
		out[i] = e
		return out
	}
	out := make(Metadata, 0, len(m)+1)
	out = append(out, e)
	return append(out, m...)
}

// ReplaceByID overwrites the entry with e's id at its current position.
// When no such entry exists the list is returned unchanged and replaced is false.
func (m Metadata) ReplaceByID(e MetadataEntry) (Metadata, bool) {
	i := m.IndexOf(e.ID)
	if i < 0 {
		return m, false
	}
	out := m.clone()
	out[i] = e
	return out, true
}

// RemoveByID filters out every entry with the given id, keeping the order of the rest.
func (m Metadata) RemoveByID(id string) (Metadata, bool) {
	out := make(Metadata, 0, len(m))
	removed := false
	for _, e := range m {
		if e.ID == id {
			removed = true
			continue
		}
		out = append(out, e)
	}
	return out, removed
}

func (m Metadata) clone() Metadata {
	out := make(Metadata, len(m))
	copy(out, m)
	return out
}
