package models

import "time"

// Record is a persisted gas market row.
type Record struct {
	ID          uint       `gorm:"column:ID;primaryKey;autoIncrement" json:"ID"`
	Date        Date       `gorm:"column:DATA;not null;index:idx_mercado_gas_grupo,priority:1" json:"DATA"`
	Spreadsheet string     `gorm:"column:PLANILHA;size:100;not null;index:idx_mercado_gas_grupo,priority:2" json:"PLANILHA"`
	Sheet       string     `gorm:"column:ABA;size:100;not null;index:idx_mercado_gas_grupo,priority:3" json:"ABA"`
	Product     string     `gorm:"column:PRODUTO;size:100;not null" json:"PRODUTO"`
	Location    *string    `gorm:"column:LOCAL;size:100" json:"LOCAL"`
	Company     *string    `gorm:"column:EMPRESA;size:255" json:"EMPRESA"`
	Unit        string     `gorm:"column:UNIDADE;size:20;not null" json:"UNIDADE"`
	Value       float64    `gorm:"column:VALOR;not null" json:"VALOR"`
	CreatedAt   time.Time  `gorm:"column:CRIADO_EM;autoCreateTime:false" json:"CRIADO_EM"`
	UpdatedAt   *time.Time `gorm:"column:ATUALIZADO_EM;autoUpdateTime:false" json:"ATUALIZADO_EM"`
}

// TableName overrides the table name.
func (Record) TableName() string {
	return "MERCADO_GAS"
}
