// Package nbt 把服务器输出的物品列表文本尽力改写为JSON
//
// 这不是通用的NBT解析器，只是按顺序执行的一组正则替换，最后用一次解码验证结果。
package nbt

import (
	"regexp"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mitchellh/mapstructure"
	"github.com/wfunc/minecraft-monitor/internal/errors"
)

var (
	// 冒号前的裸键
	bareKey = regexp.MustCompile(`([{,])(\s*)([A-Za-z0-9_\-]+?)\s*(:\s*)`)
	// 冒号之后、逗号或右括号之前的裸值
	bareValue = regexp.MustCompile(`(:)(\s*)([A-Za-z0-9_\-]+?)([,}])(\s*)`)
	// 被上一步加了引号的带类型后缀数字，如 "1b"
	quotedSuffix = regexp.MustCompile(`(?i)"([-\d]\d*)[bslfd]"`)
	// 未加引号的小数后缀，如 12.5d
	decimalSuffix = regexp.MustCompile(`(?i)(\d+\.\d+)d`)
)

// rules 依次执行，每条规则都作用于上一条的输出
var rules = []func(string) string{
	func(s string) string { return strings.ReplaceAll(s, "'", "") },
	func(s string) string { return bareKey.ReplaceAllString(s, `${1}"${3}":`) },
	func(s string) string { return bareValue.ReplaceAllString(s, `${1}"${3}"${4}`) },
	func(s string) string { return quotedSuffix.ReplaceAllString(s, "${1}") },
	func(s string) string { return decimalSuffix.ReplaceAllString(s, "${1}") },
}

// Item 物品
type Item struct {
	ID    string      `json:"id" mapstructure:"id"`
	Slot  int         `json:"slot" mapstructure:"slot"`
	Count int         `json:"count" mapstructure:"count"`
	Tag   interface{} `json:"tag,omitempty" mapstructure:"tag"`
}

// Normalize 改写物品列表文本，结果无法解码为物品列表时返回 false
func Normalize(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}

	text := raw
	for _, rule := range rules {
		text = rule(text)
	}

	if _, err := DecodeItems(text); err != nil {
		return "", false
	}
	return text, true
}

// DecodeItems 解码物品列表
// 键名不区分大小写，数字允许以字符串形式出现；null 和缺少 id 的物品视为无效
func DecodeItems(text string) ([]Item, error) {
	var generic []map[string]interface{}
	if err := json.Unmarshal([]byte(text), &generic); err != nil {
		return nil, err
	}
	if generic == nil {
		return nil, errors.New(errors.ErrResponseParse, "物品列表为 null")
	}

	items := make([]Item, 0, len(generic))
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &items,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(generic); err != nil {
		return nil, err
	}
	for i, item := range items {
		if item.ID == "" {
			return nil, errors.Newf(errors.ErrResponseParse, "第 %d 个物品缺少 id", i)
		}
	}
	return items, nil
}
