package models

// ErrorResponse is the JSON body returned for every handler-level failure.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type CreateMessageRequest struct {
	RecipientID string `json:"recipientId" binding:"required"`
	Text        string `json:"text" binding:"required"`
}

type CreateConversationRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type UpdateUserRequest struct {
	Email    string `json:"email" binding:"required"`
	Username string `json:"username" binding:"required"`
}

type DevCreateUserRequest struct {
	Email    string `json:"email" binding:"required"`
	Username string `json:"username" binding:"required"`
	Bio      string `json:"bio"`
	Avatar   string `json:"avatar"`
}
