package models

import "time"

// User is an account allowed to call the API.
type User struct {
	ID           uint       `gorm:"column:ID;primaryKey;autoIncrement" json:"ID"`
	Username     string     `gorm:"column:USERNAME;size:50;not null;uniqueIndex" json:"USERNAME"`
	PasswordHash string     `gorm:"column:PASSWORD_HASH;size:255;not null" json:"-"`
	Email        *string    `gorm:"column:EMAIL;size:100;uniqueIndex" json:"EMAIL"`
	IsActive     bool       `gorm:"column:IS_ACTIVE;not null" json:"IS_ACTIVE"`
	CreatedAt    time.Time  `gorm:"column:CRIADO_EM;autoCreateTime:false" json:"CRIADO_EM"`
	UpdatedAt    *time.Time `gorm:"column:ATUALIZADO_EM;autoUpdateTime:false" json:"ATUALIZADO_EM"`
}

// TableName overrides the table name used by User.
func (User) TableName() string {
	return "USUARIO"
}
