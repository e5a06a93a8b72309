package model

import "time"

// MemoryNode is one node of the corporate-memory graph fragment embedded
// in an AI reply.
type MemoryNode struct {
	ID      string `xml:"id,attr" json:"id"`
	Label   string `xml:"label,attr" json:"label"`
	Type    string `xml:"type,attr" json:"type"`
	Tags    string `xml:"tags,attr" json:"tags"`
	Content string `xml:",chardata" json:"content"`
}

// MemoryLink is a directed edge between two memory nodes.
type MemoryLink struct {
	Source   string  `xml:"source,attr" json:"source"`
	Target   string  `xml:"target,attr" json:"target"`
	Rel      string  `xml:"rel,attr" json:"rel"`
	Strength float64 `xml:"strength,attr" json:"strength"`
}

// MemoryUpdate is the graph fragment extracted from one completed job.
// Records are append-only; there is no merge logic at this layer.
type MemoryUpdate struct {
	UserID    string
	Nodes     []MemoryNode
	Links     []MemoryLink
	CreatedAt time.Time
}

func (m *MemoryUpdate) Empty() bool {
	return len(m.Nodes) == 0 && len(m.Links) == 0
}
