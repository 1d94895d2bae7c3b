package entities

import "operations-system/pkg/types"

// ItemKind - к какому корню относится группа: товары или запчастини.
type ItemKind string

const (
	ItemKindEquipment ItemKind = "equipment"
	ItemKindParts     ItemKind = "parts"
)

func (k ItemKind) Valid() bool {
	return k == ItemKindEquipment || k == ItemKindParts
}

type Category struct {
	ID        uint64
	Name      string
	ParentID  *uint64
	ItemKind  ItemKind
	SortOrder int

	// Children не хранится, собирается запросом дерева.
	Children []*Category `json:"children,omitempty"`

	types.BaseEntity
}
