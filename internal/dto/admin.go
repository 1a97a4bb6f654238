package dto

type RoleRequest struct {
	Role string `json:"role"`
}

type MessageStatusRequest struct {
	Status string `json:"status"`
}
