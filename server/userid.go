package server

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// coerceUserID 把请求中的 user_id 转为整数，规则与 Python int() 一致：
//   - 整数原样；浮点数向零截断
//   - 字符串允许首尾空白、正负号与数字间的下划线，不接受小数
//   - true/false 视为 1/0
//   - null、对象、数组以及超出 int64 的值均无效
func coerceUserID(v any) (int64, error) {
	switch x := v.(type) {
	case json.Number:
		if id, err := strconv.ParseInt(x.String(), 10, 64); err == nil {
			return id, nil
		}
		f, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid user_id %s", x)
		}
		return truncate(f)
	case float64:
		return truncate(x)
	case string:
		return parseIntString(x)
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case nil:
		return 0, errors.New("user_id must not be null")
	default:
		return 0, fmt.Errorf("user_id must be an integer, got %T", v)
	}
}

func truncate(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid user_id %v", f)
	}
	t := math.Trunc(f)
	if t < math.MinInt64 || t >= math.MaxInt64 {
		return 0, fmt.Errorf("user_id %v out of range", f)
	}
	return int64(t), nil
}

func parseIntString(s string) (int64, error) {
	trimmed := strings.TrimSpace(s)
	digits := strings.TrimLeft(trimmed, "+-")
	if len(trimmed)-len(digits) > 1 || !validUnderscores(digits) {
		return 0, fmt.Errorf("invalid user_id %q", s)
	}
	id, err := strconv.ParseInt(strings.ReplaceAll(trimmed, "_", ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user_id %q", s)
	}
	return id, nil
}

// validUnderscores 要求下划线只出现在两个数字之间
func validUnderscores(digits string) bool {
	if digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] != '_' {
			continue
		}
		if i == 0 || i == len(digits)-1 || !isDigit(digits[i-1]) || !isDigit(digits[i+1]) {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
