package convert

import (
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// StructAssign deep-copies same-named fields from src into dst
// StructAssign 将 src 中同名字段深拷贝到 dst
func StructAssign(src any, dst any) error {
	if err := copier.CopyWithOption(dst, src, copier.Option{DeepCopy: true}); err != nil {
		return errors.Wrap(err, "struct assign failed")
	}
	return nil
}
