// Package domain 定义领域模型和接口
package domain

import (
	"errors"
	"time"

	"github.com/medref/revision-service/pkg/util"

	"github.com/bytedance/sonic"
)

// ArticleStatus 文章发布状态
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "draft"
	StatusPublished ArticleStatus = "published"
	StatusArchived  ArticleStatus = "archived"
)

// AgeGroup 参考范围适用人群
type AgeGroup string

const (
	AgeGroupAdult     AgeGroup = "adult"
	AgeGroupPediatric AgeGroup = "pediatric"
	AgeGroupNeonatal  AgeGroup = "neonatal"
	AgeGroupGeriatric AgeGroup = "geriatric"
	AgeGroupAll       AgeGroup = "all"
)

// ReferenceRange is one normal-range row of a clinical test
// ReferenceRange 检验项目的一条参考范围
type ReferenceRange struct {
	Parameter string   `json:"parameter" validate:"required"`
	Range     string   `json:"range" validate:"required"`
	Unit      string   `json:"unit"`
	AgeGroup  AgeGroup `json:"ageGroup" validate:"omitempty,oneof=adult pediatric neonatal geriatric all"`
	Notes     string   `json:"notes,omitempty"`
}

// Image 文章图片附件
type Image struct {
	URL     string `json:"url" validate:"required"`
	Caption string `json:"caption,omitempty"`
	Alt     string `json:"alt,omitempty"`
}

// RevisionFields is the versioned payload of an article. Every field here is
// copied into a revision on each edit and written back on restore.
// RevisionFields 文章中参与版本化的字段，每次编辑写入修订，恢复时整体回写
type RevisionFields struct {
	Title                string           `json:"title" validate:"required"`
	Slug                 string           `json:"slug" validate:"required,slug"`
	Content              string           `json:"content" validate:"required"`
	Summary              string           `json:"summary"`
	Category             string           `json:"category"`
	Tags                 []string         `json:"tags"`
	ReferenceRanges      []ReferenceRange `json:"referenceRanges" validate:"dive"`
	ClinicalSignificance string           `json:"clinicalSignificance"`
	Interpretation       string           `json:"interpretation"`
	RelatedTests         []string         `json:"relatedTests"`
	References           []string         `json:"references"`
	Images               []Image          `json:"images" validate:"dive"`
	Status               ArticleStatus    `json:"status" validate:"required,oneof=draft published archived"`
}

// Article 文章（当前线上版本）领域模型
type Article struct {
	ID        int64
	Fields    RevisionFields
	ViewCount int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ErrDuplicateSlug 别名已被其他文章占用
var ErrDuplicateSlug = errors.New("article slug already exists")

// Canonical 将 nil 切片替换为空切片，DiffFields 视二者相同
func (f RevisionFields) Canonical() RevisionFields {
	if f.Tags == nil {
		f.Tags = []string{}
	}
	if f.ReferenceRanges == nil {
		f.ReferenceRanges = []ReferenceRange{}
	}
	if f.RelatedTests == nil {
		f.RelatedTests = []string{}
	}
	if f.References == nil {
		f.References = []string{}
	}
	if f.Images == nil {
		f.Images = []Image{}
	}
	return f
}

// Hash returns the md5 of the canonical serialized fields, equal fields hash equally
// Hash 返回规范化字段序列化后的 MD5，DiffFields 判定相同的字段哈希相同
func (f RevisionFields) Hash() string {
	data, err := sonic.ConfigStd.Marshal(f.Canonical())
	if err != nil {
		return ""
	}
	return util.EncodeMD5(data)
}
