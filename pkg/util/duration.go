package util

import (
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses duration string, supports the 'd' (day) suffix and bare seconds
// ParseDuration 解析时间字符串，支持 'd' (天) 后缀，纯数字按秒处理
//
//	"7d" -> 168h, "1h" -> 1h, "90" -> 90s
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	if _, err := strconv.Atoi(s); err == nil {
		s += "s"
	}
	return time.ParseDuration(s)
}

// ParseDurationOr is ParseDuration with a fallback for empty or malformed input
// ParseDurationOr 解析失败或为空时返回 fallback
func ParseDurationOr(s string, fallback time.Duration) time.Duration {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	d, err := ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
