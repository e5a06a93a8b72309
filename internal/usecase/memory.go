// File: internal/usecase/memory.go
package usecase

import (
	"encoding/xml"
	"fmt"
	"strings"

	"unique-ue/internal/domain/model"
)

const (
	memoryOpenTag  = "<memory_update>"
	memoryCloseTag = "</memory_update>"
)

type memoryUpdateXML struct {
	XMLName xml.Name           `xml:"memory_update"`
	Nodes   []model.MemoryNode `xml:"node"`
	Links   []model.MemoryLink `xml:"link"`
}

// ExtractMemoryUpdate pulls the <memory_update> block out of an AI reply
// and parses it as structured XML. A reply without a block yields (nil, nil);
// a block that is present but malformed is an error, never a silent
// truncation.
func ExtractMemoryUpdate(userID, reply string) (*model.MemoryUpdate, error) {
	start := strings.Index(reply, memoryOpenTag)
	if start < 0 {
		return nil, nil
	}
	end := strings.Index(reply[start:], memoryCloseTag)
	if end < 0 {
		return nil, fmt.Errorf("memory update block is not closed")
	}
	block := reply[start : start+end+len(memoryCloseTag)]

	var parsed memoryUpdateXML
	if err := xml.Unmarshal([]byte(block), &parsed); err != nil {
		return nil, fmt.Errorf("parse memory update: %w", err)
	}

	update := &model.MemoryUpdate{
		UserID: userID,
		Nodes:  parsed.Nodes,
		Links:  parsed.Links,
	}
	for i := range update.Nodes {
		update.Nodes[i].Content = strings.TrimSpace(update.Nodes[i].Content)
	}
	if update.Empty() {
		return nil, nil
	}
	return update, nil
}
