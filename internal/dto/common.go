package dto

// PaginationRequest common paging query.
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage page number, default 1.
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize page size, default 20.
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset row offset of the page.
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// MemberInput a member picked for a roster slot.
type MemberInput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rank string `json:"rank"`
	Role string `json:"role,omitempty"`
}

// RosterSlot one slot of a roster with its occupant, if any.
type RosterSlot struct {
	Key      string       `json:"key"`
	Label    string       `json:"label"`
	Required bool         `json:"required"`
	Member   *MemberInput `json:"member"`
}
