package dao

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDuplicateKey reports whether err is a unique-constraint violation
// isDuplicateKey 判断是否违反唯一约束
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"unique constraint failed", // sqlite
		"duplicate entry",          // mysql 1062
		"duplicate key value",      // postgres 23505
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
