// Package timex time type shared by the models and DTOs
// Package timex 模型与 DTO 共用的时间类型
//
// Time is stored by the database drivers as a regular timestamp and encoded in JSON
// as RFC 3339 in UTC with millisecond precision, e.g. "2024-01-01T12:00:00.000Z".
// Time 在数据库中以普通时间戳存储，JSON 编码为毫秒精度的 UTC RFC 3339 字符串。
package timex

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layout JSON layout of Time // JSON 时间格式
const Layout = "2006-01-02T15:04:05.000Z07:00"

type Time time.Time

// Now current time truncated to milliseconds
// Now 当前时间，截断到毫秒
func Now() Time {
	return Time(time.Now().Truncate(time.Millisecond))
}

// FromUnixMilli // 由毫秒时间戳构造
func FromUnixMilli(ms int64) Time {
	return Time(time.UnixMilli(ms))
}

func (t Time) Time() time.Time {
	return time.Time(t)
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

func (t Time) IsZero() bool {
	return time.Time(t).IsZero()
}

func (t Time) Equal(u Time) bool {
	return time.Time(t).Equal(time.Time(u))
}

func (t Time) After(u Time) bool {
	return time.Time(t).After(time.Time(u))
}

func (t Time) String() string {
	return time.Time(t).UTC().Format(Layout)
}

// MarshalJSON encodes the zero time as null
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(t.String())), nil
}

// UnmarshalJSON accepts RFC 3339 strings, millisecond timestamps and null
// UnmarshalJSON 支持 RFC 3339 字符串、毫秒时间戳与 null
func (t *Time) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*t = Time{}
		return nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*t = FromUnixMilli(ms)
		return nil
	}
	unquoted, err := strconv.Unquote(s)
	if err != nil {
		return fmt.Errorf("timex: invalid time %s", s)
	}
	parsed, err := time.Parse(time.RFC3339Nano, unquoted)
	if err != nil {
		return err
	}
	*t = Time(parsed)
	return nil
}

// Value implements driver.Valuer
func (t Time) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return time.Time(t), nil
}

// Scan implements sql.Scanner
func (t *Time) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*t = Time{}
	case time.Time:
		*t = Time(v)
	case int64:
		*t = FromUnixMilli(v)
	case []byte:
		return t.scanString(string(v))
	case string:
		return t.scanString(v)
	default:
		return fmt.Errorf("timex: cannot scan %T", value)
	}
	return nil
}

var scanLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (t *Time) scanString(s string) error {
	for _, layout := range scanLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = Time(parsed)
			return nil
		}
	}
	return fmt.Errorf("timex: cannot parse %q", s)
}
