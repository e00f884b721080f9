package viewstate

import (
	"encoding/json"
	"fmt"
)

// Envelope is the JSON form of an Action, used by the HTTP surface. Only the
// fields relevant to Type are read.
type Envelope struct {
	Type     string    `json:"type"`
	ColumnID string    `json:"columnId,omitempty"`
	Value    any       `json:"value,omitempty"`
	Visible  *bool     `json:"visible,omitempty"`
	Width    int       `json:"width,omitempty"`
	Delta    int       `json:"delta,omitempty"`
	Index    int       `json:"index,omitempty"`
	Size     int       `json:"size,omitempty"`
	Sorting  []SortKey `json:"sorting,omitempty"`
}

// DecodeAction parses a JSON action envelope.
func DecodeAction(data []byte) (Action, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}
	return env.Action()
}

// Action converts the envelope to its concrete action.
func (e Envelope) Action() (Action, error) {
	switch e.Type {
	case SetSorting{}.Name():
		return SetSorting{Sorting: e.Sorting}, nil
	case ToggleSort{}.Name():
		return ToggleSort{ColumnID: e.ColumnID}, nil
	case SetColumnFilter{}.Name():
		return SetColumnFilter{ColumnID: e.ColumnID, Value: e.Value}, nil
	case ClearColumnFilter{}.Name():
		return ClearColumnFilter{ColumnID: e.ColumnID}, nil
	case SetGlobalFilter{}.Name():
		s, _ := e.Value.(string)
		return SetGlobalFilter{Value: s}, nil
	case SetColumnVisibility{}.Name():
		visible := true
		if e.Visible != nil {
			visible = *e.Visible
		}
		return SetColumnVisibility{ColumnID: e.ColumnID, Visible: visible}, nil
	case SetColumnWidth{}.Name():
		return SetColumnWidth{ColumnID: e.ColumnID, Width: e.Width}, nil
	case BeginResize{}.Name():
		return BeginResize{ColumnID: e.ColumnID}, nil
	case DragResize{}.Name():
		return DragResize{Delta: e.Delta}, nil
	case EndResize{}.Name():
		return EndResize{ColumnID: e.ColumnID}, nil
	case CancelResize{}.Name():
		return CancelResize{}, nil
	case SetPage{}.Name():
		return SetPage{Index: e.Index}, nil
	case SetPageSize{}.Name():
		return SetPageSize{Size: e.Size}, nil
	case ResetView{}.Name():
		return ResetView{}, nil
	case "":
		return nil, fmt.Errorf("decode action: missing type")
	default:
		return nil, fmt.Errorf("decode action: unknown type %q", e.Type)
	}
}
