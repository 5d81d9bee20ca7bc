package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Lead struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId  string         `gorm:"type:varchar(64);index"`
	Email      string         `gorm:"type:varchar(320);not null;index"`
	Name       string         `gorm:"type:varchar(255)"`
	Phone      string         `gorm:"type:varchar(64)"`
	Company    string         `gorm:"type:varchar(255)"`
	Intent     string         `gorm:"type:varchar(32)"`
	Confidence float64        `gorm:"default:0"`
	Topics     datatypes.JSON `gorm:"type:jsonb"`
	Message    string         `gorm:"type:text"`
	Status     string         `gorm:"type:varchar(32);default:'new'"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
}

func (Lead) TableName() string {
	return "leads"
}
