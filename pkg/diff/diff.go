// Package diff renders inline text differences for long-form fields
// Package diff 为长文本字段生成行内差异
package diff

import "github.com/sergi/go-diff/diffmatchpatch"

// Op 片段类型
type Op string

const (
	OpEqual  Op = "equal"
	OpInsert Op = "insert"
	OpDelete Op = "delete"
)

// Segment is one run of unchanged, inserted or deleted text
// Segment 一段相同、新增或删除的文本
type Segment struct {
	Op   Op     `json:"op"`
	Text string `json:"text"`
}

// Stats 差异统计（按字符）
type Stats struct {
	Insertions int `json:"insertions"`
	Deletions  int `json:"deletions"`
}

// TextDiff returns the semantic diff turning a into b
// TextDiff 返回 a 变为 b 的语义化差异
func TextDiff(a, b string) []Segment {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	segments := make([]Segment, 0, len(diffs))
	for _, d := range diffs {
		segments = append(segments, Segment{Op: toOp(d.Type), Text: d.Text})
	}
	return segments
}

// Summarize 统计新增与删除的字符数
func Summarize(segments []Segment) Stats {
	var s Stats
	for _, seg := range segments {
		n := len([]rune(seg.Text))
		switch seg.Op {
		case OpInsert:
			s.Insertions += n
		case OpDelete:
			s.Deletions += n
		}
	}
	return s
}

func toOp(t diffmatchpatch.Operation) Op {
	switch t {
	case diffmatchpatch.DiffInsert:
		return OpInsert
	case diffmatchpatch.DiffDelete:
		return OpDelete
	default:
		return OpEqual
	}
}
