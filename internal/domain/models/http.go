package models

// Requests for scanner HTTP endpoints. Defined in domain for consistency and reuse.

type CacheAdminRequest struct {
	Action string `json:"action" validate:"required,oneof=clear status cleanup"`
}

type ArchiveQueryRequest struct {
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
	Symbol string `query:"symbol" json:"symbol"`
}
