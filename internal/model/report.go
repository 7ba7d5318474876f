package model

import "time"

// Report incident / seizure record — reports.
//
// Payload columns are jsonb: legacy rows carry numbers, numeric strings,
// arrays, objects or JSON-encoded strings in the same column.
type Report struct {
	ID          string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID      *string    `gorm:"type:uuid;index"                                json:"user_id,omitempty"`
	Author      string     `gorm:"type:varchar(150)"                              json:"author"`
	AuthorRank  string     `gorm:"type:varchar(60)"                               json:"author_rank"`
	UnitPrefix  string     `gorm:"type:varchar(60)"                               json:"unit_prefix"`
	Members     JSONB      `gorm:"type:jsonb"                                     json:"members"`
	Occurrences JSONB      `gorm:"type:jsonb"                                     json:"occurrences"`
	Detained    JSONB      `gorm:"type:jsonb"                                     json:"detained"`
	Bombs       JSONB      `gorm:"type:jsonb"                                     json:"bombs"`
	Lockpicks   JSONB      `gorm:"type:jsonb"                                     json:"lockpicks"`
	Ammo        JSONB      `gorm:"type:jsonb"                                     json:"ammo"`
	Ammunition  JSONB      `gorm:"type:jsonb"                                     json:"ammunition,omitempty"`
	Municao     JSONB      `gorm:"type:jsonb"                                     json:"municao,omitempty"`
	Weapons     JSONB      `gorm:"type:jsonb"                                     json:"weapons"`
	Drugs       JSONB      `gorm:"type:jsonb"                                     json:"drugs"`
	MarkedMoney JSONB      `gorm:"type:jsonb"                                     json:"marked_money"`
	Actions     string     `gorm:"type:text"                                      json:"actions"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	ReviewedBy  *string    `gorm:"type:varchar(100)"                              json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	BaseModel
}

// TableName table name
func (Report) TableName() string { return "reports" }
