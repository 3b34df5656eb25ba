package model

import (
	"encoding/json"
	"time"

	"github.com/iliyamo/venue-seat-layout/internal/geometry"
	"github.com/iliyamo/venue-seat-layout/internal/seatgen"
)

// Zone is a named polygonal section of the venue and the seats generated
// into it.  Pricing and capacity metadata beyond the seat list live with
// whoever renders the layout.
//
// Fields:
//  ID      – client assigned identifier, unique within a layout.
//  Name    – display name ("Orchestra", "Balcony left").
//  Polygon – section outline in canvas coordinates.
//  Options – generation options last used for this zone (nil if seats were placed by hand).
//  Seats   – seats currently belonging to the zone.
//  Color   – optional fill colour for the editor.
type Zone struct {
	ID      string                  `json:"id"`
	Name    string                  `json:"name"`
	Polygon geometry.Polygon        `json:"polygon"`
	Options *seatgen.Options        `json:"options,omitempty"`
	Seats   []seatgen.GeneratedSeat `json:"seats"`
	Color   string                  `json:"color,omitempty"`
}

// Clone returns a copy of z that shares no slices with it.
func (z Zone) Clone() Zone {
	out := z
	out.Polygon = append(geometry.Polygon(nil), z.Polygon...)
	out.Seats = append([]seatgen.GeneratedSeat(nil), z.Seats...)
	if z.Options != nil {
		opts := *z.Options
		opts.AislePositions = append([]int(nil), z.Options.AislePositions...)
		if z.Options.FocalPoint != nil {
			fp := *z.Options.FocalPoint
			opts.FocalPoint = &fp
		}
		out.Options = &opts
	}
	return out
}

// CloneZones deep copies a zone list.
func CloneZones(zones []Zone) []Zone {
	if zones == nil {
		return nil
	}
	out := make([]Zone, len(zones))
	for i, z := range zones {
		out[i] = z.Clone()
	}
	return out
}

// LayoutDocument is the payload persisted for a layout: the editor's opaque
// canvas state plus the zones drawn on it.
type LayoutDocument struct {
	CanvasState json.RawMessage `json:"canvas_state,omitempty"`
	Zones       []Zone          `json:"zones"`
}

// Layout is one row of the layouts table.
//
// Fields:
//  ID           – layout identifier chosen by the client.
//  Payload      – serialized LayoutDocument.
//  Version      – optimistic concurrency counter, bumped on every save.
//  LastEditedBy – identity of the editor behind the latest save.
//  UpdatedAt    – time of the latest save.
type Layout struct {
	ID           string          // layouts.id
	Payload      json.RawMessage // layouts.payload
	Version      int64           // layouts.version
	LastEditedBy string          // layouts.last_edited_by
	UpdatedAt    time.Time       // layouts.updated_at
}
