package events

import (
	"fmt"

	"github.com/vsinha/bomcost/pkg/domain/entities"
)

const (
	EdgeCreatedEvent     = "bom.edge_created"
	EdgeUpdatedEvent     = "bom.edge_updated"
	EdgeDeactivatedEvent = "bom.edge_deactivated"
	EdgePurgedEvent      = "bom.edge_purged"
)

// EdgeStream names the event stream of one BOM edge
func EdgeStream(id entities.BOMID) string {
	return fmt.Sprintf("bom-%d", id)
}

type EdgeCreated struct {
	Edge entities.BOMEdge `json:"edge"`
}

type EdgeUpdated struct {
	Before entities.BOMEdge `json:"before"`
	After  entities.BOMEdge `json:"after"`
}

type EdgeDeactivated struct {
	Edge entities.BOMEdge `json:"edge"`
}

// EdgePurged records inactive edges hard-deleted to make room for a new edge
type EdgePurged struct {
	ParentID   entities.ItemID `json:"parent_item_id"`
	ChildID    entities.ItemID `json:"child_item_id"`
	Count      int64           `json:"count"`
	ReplacedBy entities.BOMID  `json:"replaced_by"`
}
