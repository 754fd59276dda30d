package music

import (
	"testing"

	"github.com/dhowden/tag"
)

func TestTagValueFirstString(t *testing.T) {
	tests := []struct {
		name     string
		raw      any
		expected string
	}{
		{name: "普通字符串", raw: "Jay Chou", expected: "Jay Chou"},
		{name: "带空白的字符串", raw: "  晴天  ", expected: "晴天"},
		{name: "字符串数组取首个", raw: []string{"first", "second"}, expected: "first"},
		{name: "空数组", raw: []string{}, expected: ""},
		{name: "any数组", raw: []any{"value", 42}, expected: "value"},
		{name: "嵌套数组", raw: []any{[]any{"deep"}}, expected: "deep"},
		{name: "COMM结构体指针", raw: &tag.Comm{Text: "一条注释"}, expected: "一条注释"},
		{name: "COMM结构体值", raw: tag.Comm{Text: "comment"}, expected: "comment"},
		{name: "nil指针", raw: (*tag.Comm)(nil), expected: ""},
		{name: "整数", raw: 128, expected: "128"},
		{name: "uint32", raw: uint32(96000), expected: "96000"},
		{name: "浮点数", raw: 120.5, expected: "120.5"},
		{name: "nil", raw: nil, expected: ""},
		{name: "不支持的类型", raw: struct{}{}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewTagValue(tt.raw).FirstString(); got != tt.expected {
				t.Errorf("FirstString() = %q, 期望 %q", got, tt.expected)
			}
		})
	}
}

func TestTagValueFirstInt(t *testing.T) {
	tests := []struct {
		name     string
		raw      any
		expected int
	}{
		{name: "整数字符串", raw: "128", expected: 128},
		{name: "带小数的BPM", raw: "128.0", expected: 128},
		{name: "带斜线的BPM", raw: "128/0", expected: 128},
		{name: "原生整数", raw: 96, expected: 96},
		{name: "非数字", raw: "fast", expected: 0},
		{name: "空值", raw: nil, expected: 0},
		{name: "数组里的数字", raw: []string{"140", "x"}, expected: 140},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewTagValue(tt.raw).FirstInt(); got != tt.expected {
				t.Errorf("FirstInt() = %d, 期望 %d", got, tt.expected)
			}
		})
	}
}
