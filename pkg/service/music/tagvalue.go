/*
 * @Description: 标签值归一化 - 统一处理标量/数组/结构体三种原始标签形态
 * @Author: 安知鱼
 * @Date: 2026-02-11 19:31:40
 * @LastEditTime: 2026-02-11 19:31:40
 * @LastEditors: 安知鱼
 */
package music

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
)

// TagValue 包装一个原始标签值。
// 不同容器格式的同名标签可能是标量、数组或带 Text 字段的结构体
// （如 ID3v2 的 COMM/USLT 帧），归一化规则集中在这里，避免类型
// 判断散落在提取器各处。
type TagValue struct {
	raw any
}

// NewTagValue 包装一个 Raw() 映射中取出的原始值
func NewTagValue(raw any) TagValue {
	return TagValue{raw: raw}
}

// FirstString 按固定顺序展开原始值并返回第一个可用字符串：
// 数组取首个元素；带 Text 字段的结构体取 Text；数值转十进制；
// 其余情况返回空串。
func (v TagValue) FirstString() string {
	return firstString(v.raw, 0)
}

// firstString 做实际的递归展开，depth 防御构造恶意的自嵌套数组
func firstString(raw any, depth int) string {
	if raw == nil || depth > 3 {
		return ""
	}

	switch val := raw.(type) {
	case string:
		return strings.TrimSpace(val)
	case []string:
		if len(val) == 0 {
			return ""
		}
		return firstString(val[0], depth+1)
	case []any:
		if len(val) == 0 {
			return ""
		}
		return firstString(val[0], depth+1)
	case *tag.Comm:
		if val == nil {
			return ""
		}
		return strings.TrimSpace(val.Text)
	case tag.Comm:
		return strings.TrimSpace(val.Text)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		return ""
	}
}

// FirstInt 在 FirstString 的基础上解析十进制整数，失败时返回 0。
// 部分标签（如 TBPM）会写成 "128.0" 或 "128/0"，这里只取前导数字。
func (v TagValue) FirstInt() int {
	s := v.FirstString()
	if s == "" {
		return 0
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
