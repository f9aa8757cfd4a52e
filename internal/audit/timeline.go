package audit

import (
	"time"

	"github.com/google/uuid"
)

// TimelineFilters narrows the audit timeline. From is inclusive, To exclusive.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	ActorID  uuid.UUID
	Entity   string
	EntityID string
	Action   string
	Page     int
	PageSize int
}

// TimelineRow is one recorded action.
type TimelineRow struct {
	At       time.Time      `json:"at"`
	ActorID  uuid.UUID      `json:"actorId"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entityId"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// PagingInfo carries simple forward/backward paging.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	HasNext  bool `json:"hasNext"`
	PrevPage int  `json:"prevPage,omitempty"`
	NextPage int  `json:"nextPage,omitempty"`
}

// Result bundles a timeline page.
type Result struct {
	Rows   []TimelineRow `json:"rows"`
	Paging PagingInfo    `json:"paging"`
}
