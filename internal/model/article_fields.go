package model

import (
	"github.com/medref/revision-service/internal/domain"

	"gorm.io/datatypes"
)

// ArticleFields holds the versioned columns shared by <article> and <article_revision>
// ArticleFields 文章与修订表共用的版本化字段列
type ArticleFields struct {
	Title                string                                     `gorm:"column:title;not null" json:"title" form:"title"`
	Slug                 string                                     `gorm:"column:slug;not null;size:191" json:"slug" form:"slug"`
	Content              string                                     `gorm:"column:content;type:text" json:"content" form:"content"`
	Summary              string                                     `gorm:"column:summary;type:text" json:"summary" form:"summary"`
	Category             string                                     `gorm:"column:category;size:191" json:"category" form:"category"`
	Tags                 datatypes.JSONSlice[string]                `gorm:"column:tags" json:"tags" form:"tags"`
	ReferenceRanges      datatypes.JSONSlice[domain.ReferenceRange] `gorm:"column:reference_ranges" json:"referenceRanges" form:"referenceRanges"`
	ClinicalSignificance string                                     `gorm:"column:clinical_significance;type:text" json:"clinicalSignificance" form:"clinicalSignificance"`
	Interpretation       string                                     `gorm:"column:interpretation;type:text" json:"interpretation" form:"interpretation"`
	RelatedTests         datatypes.JSONSlice[string]                `gorm:"column:related_tests" json:"relatedTests" form:"relatedTests"`
	References           datatypes.JSONSlice[string]                `gorm:"column:reference_list" json:"references" form:"references"`
	Images               datatypes.JSONSlice[domain.Image]          `gorm:"column:images" json:"images" form:"images"`
	Status               string                                     `gorm:"column:status;size:16;not null;default:draft" json:"status" form:"status"`
}

// NewArticleFields 由领域字段构造列值
func NewArticleFields(f domain.RevisionFields) ArticleFields {
	return ArticleFields{
		Title:                f.Title,
		Slug:                 f.Slug,
		Content:              f.Content,
		Summary:              f.Summary,
		Category:             f.Category,
		Tags:                 datatypes.JSONSlice[string](f.Tags),
		ReferenceRanges:      datatypes.JSONSlice[domain.ReferenceRange](f.ReferenceRanges),
		ClinicalSignificance: f.ClinicalSignificance,
		Interpretation:       f.Interpretation,
		RelatedTests:         datatypes.JSONSlice[string](f.RelatedTests),
		References:           datatypes.JSONSlice[string](f.References),
		Images:               datatypes.JSONSlice[domain.Image](f.Images),
		Status:               string(f.Status),
	}
}

// Domain 转换为领域字段
func (f ArticleFields) Domain() domain.RevisionFields {
	return domain.RevisionFields{
		Title:                f.Title,
		Slug:                 f.Slug,
		Content:              f.Content,
		Summary:              f.Summary,
		Category:             f.Category,
		Tags:                 []string(f.Tags),
		ReferenceRanges:      []domain.ReferenceRange(f.ReferenceRanges),
		ClinicalSignificance: f.ClinicalSignificance,
		Interpretation:       f.Interpretation,
		RelatedTests:         []string(f.RelatedTests),
		References:           []string(f.References),
		Images:               []domain.Image(f.Images),
		Status:               domain.ArticleStatus(f.Status),
	}
}

// UpdateColumns 列名到值的映射，用于整体覆盖（nil 切片同样写入）
func (f ArticleFields) UpdateColumns() map[string]interface{} {
	return map[string]interface{}{
		"title":                 f.Title,
		"slug":                  f.Slug,
		"content":               f.Content,
		"summary":               f.Summary,
		"category":              f.Category,
		"tags":                  f.Tags,
		"reference_ranges":      f.ReferenceRanges,
		"clinical_significance": f.ClinicalSignificance,
		"interpretation":        f.Interpretation,
		"related_tests":         f.RelatedTests,
		"reference_list":        f.References,
		"images":                f.Images,
		"status":                f.Status,
	}
}
