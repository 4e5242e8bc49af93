// Package timex provides a time type that stores cleanly across gorm dialects
// Package timex 提供可在各 gorm 方言间统一存储的时间类型
package timex

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Layout 文本时间格式
const Layout = "2006-01-02 15:04:05.000"

// Time wraps time.Time for gorm columns and JSON payloads
// Time 包装 time.Time，用于 gorm 字段与 JSON 输出
type Time time.Time

// Now 当前时间
func Now() Time {
	return Time(time.Now())
}

func (t Time) Time() time.Time {
	return time.Time(t)
}

func (t Time) IsZero() bool {
	return time.Time(t).IsZero()
}

func (t Time) Unix() int64 {
	return time.Time(t).Unix()
}

func (t Time) UnixMilli() int64 {
	return time.Time(t).UnixMilli()
}

func (t Time) UnixMicro() int64 {
	return time.Time(t).UnixMicro()
}

func (t Time) UnixNano() int64 {
	return time.Time(t).UnixNano()
}

func (t Time) String() string {
	return time.Time(t).Format(Layout)
}

// GormDataType lets each dialect pick its native datetime column
// GormDataType 由各方言决定具体的时间列类型
func (Time) GormDataType() string {
	return "time"
}

// Value implements driver.Valuer
func (t Time) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return time.Time(t), nil
}

// Scan implements sql.Scanner
func (t *Time) Scan(v interface{}) error {
	switch value := v.(type) {
	case nil:
		*t = Time(time.Time{})
		return nil
	case time.Time:
		*t = Time(value)
		return nil
	case string:
		return t.parse(value)
	case []byte:
		return t.parse(string(value))
	}
	return fmt.Errorf("timex: cannot scan %T into Time", v)
}

func (t *Time) parse(s string) error {
	for _, layout := range []string{time.RFC3339Nano, Layout, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = Time(parsed)
			return nil
		}
	}
	return fmt.Errorf("timex: cannot parse %q", s)
}

// MarshalJSON 输出 RFC3339 毫秒精度
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + time.Time(t).Format("2006-01-02T15:04:05.000Z07:00") + `"`), nil
}

func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*t = Time(time.Time{})
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return t.parse(s)
}
