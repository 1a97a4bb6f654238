package dto

import "vision-api/internal/domain"

type NewsletterRequest struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

type NewsletterSentResponse struct {
	RecipientCount int `json:"recipientCount"`
}

type NewsletterHistoryResponse struct {
	Newsletters []domain.Newsletter `json:"newsletters"`
	Pagination  Pagination          `json:"pagination"`
}

type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
}
