// Package parser 解析服务器命令返回的文本
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/wfunc/minecraft-monitor/internal/errors"
)

// 轮询使用的命令
const (
	CmdListUUIDs       = "/list uuids"
	CmdPlayerDimension = "/execute as @a run data get entity @s Dimension"
	CmdPlayerPosition  = "/execute as @a run data get entity @s Pos"
	CmdPlayerInventory = "/data get entity %s Inventory"
	CmdGameTime        = "/time query gametime"
	CmdDayTime         = "/time query daytime"
)

// 响应中用于识别和剥离的固定文本
const (
	RespEntityData = "%s has the following entity data: "
	RespNoEntity   = "No entity was found"
	RespNoPlayers  = "There are 0"
	RespTimePrefix = "The time is "
)

// rosterEntry 匹配 "Name (uuid)"，名称取括号前最后一个词
var rosterEntry = regexp.MustCompile(`(\S+)\s*\(([0-9a-fA-F-]{36})\)\s*$`)

// RosterEntry 在线列表中的一项
type RosterEntry struct {
	Name string
	ID   uuid.UUID
}

// Position 方块坐标
type Position struct {
	X, Y, Z int
}

// Observation 同一玩家在本周期对齐后的数据
type Observation struct {
	RosterEntry
	Position
	Dimension string
}

// InventoryCommand 生成背包查询命令
func InventoryCommand(name string) string {
	return fmt.Sprintf(CmdPlayerInventory, name)
}

// EntityPrefix 某个实体的数据回显前缀
func EntityPrefix(name string) string {
	return fmt.Sprintf(RespEntityData, name)
}

// ParseRoster 解析 /list uuids 的输出
// 空文本或 "There are 0" 表示无人在线
func ParseRoster(text string) ([]RosterEntry, error) {
	if IsEmptyRoster(text) {
		return []RosterEntry{}, nil
	}

	idx := strings.Index(text, ":")
	if idx < 0 {
		return nil, errors.Newf(errors.ErrResponseParse, "在线列表缺少冒号: %q", text)
	}

	segments := strings.Split(text[idx+1:], ",")
	entries := make([]RosterEntry, 0, len(segments))
	for _, segment := range segments {
		m := rosterEntry.FindStringSubmatch(strings.TrimSpace(segment))
		if m == nil {
			return nil, errors.Newf(errors.ErrResponseParse, "无法识别的在线列表项: %q", segment)
		}
		id, err := uuid.Parse(m[2])
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrResponseParse, "无效的玩家标识: %q", m[2])
		}
		entries = append(entries, RosterEntry{Name: m[1], ID: id})
	}
	return entries, nil
}

// IsEmptyRoster 在线列表是否表示无人在线
func IsEmptyRoster(text string) bool {
	return strings.TrimSpace(text) == "" || strings.Contains(text, RespNoPlayers)
}

// ParseDimensions 按在线列表顺序解析维度
// 第一个玩家的回显前缀替换为空，其余替换为逗号，再按逗号切分
func ParseDimensions(text string, names []string) ([]string, error) {
	if len(names) == 0 {
		return []string{}, nil
	}

	text = strings.ReplaceAll(text, `"`, "")
	for i, name := range names {
		replacement := ","
		if i == 0 {
			replacement = ""
		}
		text = strings.ReplaceAll(text, EntityPrefix(name), replacement)
	}

	parts := strings.Split(text, ",")
	if len(parts) != len(names) {
		return nil, errors.Newf(errors.ErrResponseParse, "期望 %d 个维度，实际 %d 个", len(names), len(parts))
	}

	dims := make([]string, len(parts))
	for i, part := range parts {
		dims[i] = strings.TrimSpace(part)
	}
	return dims, nil
}

// ParsePositions 解析坐标输出，小数截断为整数
func ParsePositions(text string) ([]Position, error) {
	text = strings.ReplaceAll(text, " ", "")
	text = strings.ReplaceAll(text, "d", "")

	// 奇数位置是括号内的内容
	segments := splitBrackets(text)

	positions := make([]Position, 0, len(segments)/2)
	for i := 1; i < len(segments); i += 2 {
		coords := strings.Split(segments[i], ",")
		if len(coords) != 3 {
			return nil, errors.Newf(errors.ErrResponseParse, "坐标分量数量错误: %q", segments[i])
		}

		var values [3]int
		for j, c := range coords {
			f, err := strconv.ParseFloat(c, 64)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrResponseParse, "无效的坐标: %q", c)
			}
			values[j] = int(f)
		}
		positions = append(positions, Position{X: values[0], Y: values[1], Z: values[2]})
	}
	return positions, nil
}

func splitBrackets(text string) []string {
	var segments []string
	start := 0
	for i, r := range text {
		if r == '[' || r == ']' {
			segments = append(segments, text[start:i])
			start = i + 1
		}
	}
	return append(segments, text[start:])
}

// ParseClock 解析 "The time is N"
func ParseClock(text string) (int64, error) {
	value := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), RespTimePrefix))
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrResponseParse, "无效的时间: %q", text)
	}
	return n, nil
}

// Align 按位置合并三份结果，数量不一致时报错
func Align(roster []RosterEntry, dims []string, positions []Position) ([]Observation, error) {
	if len(dims) != len(roster) || len(positions) != len(roster) {
		return nil, errors.Newf(errors.ErrResponseParse,
			"数据未对齐: 玩家 %d, 维度 %d, 坐标 %d", len(roster), len(dims), len(positions))
	}

	out := make([]Observation, len(roster))
	for i := range roster {
		out[i] = Observation{
			RosterEntry: roster[i],
			Position:    positions[i],
			Dimension:   dims[i],
		}
	}
	return out, nil
}

// Names 在线列表中的名称，保持顺序
func Names(roster []RosterEntry) []string {
	names := make([]string, len(roster))
	for i, e := range roster {
		names[i] = e.Name
	}
	return names
}

// IsNoEntity 是否为 "No entity was found"
func IsNoEntity(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), RespNoEntity)
}

// StripEcho 去掉某个玩家的数据回显前缀
func StripEcho(text, name string) string {
	return strings.ReplaceAll(text, EntityPrefix(name), "")
}
