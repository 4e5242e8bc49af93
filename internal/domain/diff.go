package domain

import (
	"bytes"
	"errors"
	"reflect"

	"github.com/bytedance/sonic"
)

// ErrArticleMismatch 比较的两个修订不属于同一文章
var ErrArticleMismatch = errors.New("revisions belong to different articles")

// 版本化字段名，顺序即输出顺序
const (
	FieldTitle                = "title"
	FieldSlug                 = "slug"
	FieldContent              = "content"
	FieldSummary              = "summary"
	FieldCategory             = "category"
	FieldTags                 = "tags"
	FieldReferenceRanges      = "referenceRanges"
	FieldClinicalSignificance = "clinicalSignificance"
	FieldInterpretation       = "interpretation"
	FieldRelatedTests         = "relatedTests"
	FieldReferences           = "references"
	FieldImages               = "images"
	FieldStatus               = "status"
)

// FieldNames lists every versioned field in display order
// FieldNames 全部版本化字段（按展示顺序）
var FieldNames = []string{
	FieldTitle, FieldSlug, FieldContent, FieldSummary, FieldCategory, FieldTags,
	FieldReferenceRanges, FieldClinicalSignificance, FieldInterpretation,
	FieldRelatedTests, FieldReferences, FieldImages, FieldStatus,
}

// FieldDiff 单个字段在两个版本中的取值
type FieldDiff struct {
	Old     interface{} `json:"old"`
	New     interface{} `json:"new"`
	Changed bool        `json:"changed"`
}

// RevisionDiff is the field-level comparison of two revisions of one article
// RevisionDiff 同一文章两个修订的字段级比较结果
type RevisionDiff struct {
	ArticleID int64
	From      int64
	To        int64
	Fields    map[string]FieldDiff
}

// Differences 字段名到是否变更的映射
func (d *RevisionDiff) Differences() map[string]bool {
	out := make(map[string]bool, len(d.Fields))
	for name, f := range d.Fields {
		out[name] = f.Changed
	}
	return out
}

// ChangedFields 按展示顺序返回发生变化的字段名
func (d *RevisionDiff) ChangedFields() []string {
	var out []string
	for _, name := range FieldNames {
		if d.Fields[name].Changed {
			out = append(out, name)
		}
	}
	return out
}

// DiffRevisions compares a and b field by field. It performs no I/O and
// fails only when the revisions belong to different articles.
// DiffRevisions 逐字段比较 a 与 b，无 I/O，仅在文章不一致时返回错误
func DiffRevisions(a, b *Revision) (*RevisionDiff, error) {
	if a == nil || b == nil {
		return nil, errors.New("diff: nil revision")
	}
	if a.ArticleID != b.ArticleID {
		return nil, ErrArticleMismatch
	}
	return &RevisionDiff{
		ArticleID: a.ArticleID,
		From:      a.Version,
		To:        b.Version,
		Fields:    DiffFields(a.Fields, b.Fields),
	}, nil
}

// DiffFields compares two field sets without any identity check
// DiffFields 直接比较两组字段
//
// Scalars compare verbatim. String sequences compare by index, nil equals
// empty. Record sequences compare each element's serialized form in order.
// 标量逐字比较；字符串序列按下标比较，nil 与空切片相等；结构体序列按顺序比较序列化结果
func DiffFields(a, b RevisionFields) map[string]FieldDiff {
	scalar := func(x, y string) FieldDiff {
		return FieldDiff{Old: x, New: y, Changed: x != y}
	}
	strs := func(x, y []string) FieldDiff {
		return FieldDiff{Old: nonNil(x), New: nonNil(y), Changed: !equalStrings(x, y)}
	}

	return map[string]FieldDiff{
		FieldTitle:                scalar(a.Title, b.Title),
		FieldSlug:                 scalar(a.Slug, b.Slug),
		FieldContent:              scalar(a.Content, b.Content),
		FieldSummary:              scalar(a.Summary, b.Summary),
		FieldCategory:             scalar(a.Category, b.Category),
		FieldTags:                 strs(a.Tags, b.Tags),
		FieldReferenceRanges:      records(a.ReferenceRanges, b.ReferenceRanges),
		FieldClinicalSignificance: scalar(a.ClinicalSignificance, b.ClinicalSignificance),
		FieldInterpretation:       scalar(a.Interpretation, b.Interpretation),
		FieldRelatedTests:         strs(a.RelatedTests, b.RelatedTests),
		FieldReferences:           strs(a.References, b.References),
		FieldImages:               records(a.Images, b.Images),
		FieldStatus:               scalar(string(a.Status), string(b.Status)),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func equalStrings(x, y []string) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

func records[T any](x, y []T) FieldDiff {
	if x == nil {
		x = []T{}
	}
	if y == nil {
		y = []T{}
	}
	return FieldDiff{Old: x, New: y, Changed: !equalRecords(x, y)}
}

func equalRecords[T any](x, y []T) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if !sameEncoding(x[i], y[i]) {
			return false
		}
	}
	return true
}

// sameEncoding 比较两个元素的序列化结果
func sameEncoding(x, y interface{}) bool {
	bx, errX := sonic.ConfigStd.Marshal(x)
	by, errY := sonic.ConfigStd.Marshal(y)
	if errX != nil || errY != nil {
		return reflect.DeepEqual(x, y)
	}
	return bytes.Equal(bx, by)
}
