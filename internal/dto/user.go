package dto

// UserSearchRequest member picker query.
type UserSearchRequest struct {
	Q     string `form:"q"     binding:"omitempty,max=50"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// UserResponse directory entry.
type UserResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Rank     string `json:"rank,omitempty"`
}
