package households

// CreateInput is the payload for registering a household.
type CreateInput struct {
	Block              string `json:"block" validate:"required"`
	Lot                string `json:"lot" validate:"required"`
	Type               string `json:"type" validate:"required"`
	Status             Status `json:"status" validate:"required,oneof=Active Inactive Vacant"`
	Address            string `json:"address" validate:"required,min=5"`
	SeniorCitizenCount int    `json:"seniorCitizenCount" validate:"gte=0"`
	PWDCount           int    `json:"pwdCount" validate:"gte=0"`
	SoloParentCount    int    `json:"soloParentCount" validate:"gte=0"`
}

// StatusInput changes the status of a household.
type StatusInput struct {
	Status Status `json:"status" validate:"required,oneof=Active Inactive Vacant"`
}
