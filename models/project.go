package models

import "time"

// Narrow rows the approval trigger reads to resolve entity titles.

type Project struct {
	ProjectID   uint      `gorm:"primaryKey;column:project_id" json:"project_id"`
	ProjectName string    `gorm:"column:project_name" json:"project_name"`
	CreateAt    time.Time `gorm:"column:create_at;autoCreateTime" json:"create_at"`
}

func (Project) TableName() string { return "projects" }

type SiteDiary struct {
	DiaryID  uint      `gorm:"primaryKey;column:diary_id" json:"diary_id"`
	Title    string    `gorm:"column:title" json:"title"`
	CreateAt time.Time `gorm:"column:create_at;autoCreateTime" json:"create_at"`
}

func (SiteDiary) TableName() string { return "site_diaries" }

type FormTemplate struct {
	FormID   uint      `gorm:"primaryKey;column:form_id" json:"form_id"`
	FormName string    `gorm:"column:form_name" json:"form_name"`
	CreateAt time.Time `gorm:"column:create_at;autoCreateTime" json:"create_at"`
}

func (FormTemplate) TableName() string { return "form_templates" }
