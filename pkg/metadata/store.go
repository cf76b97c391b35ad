// Package metadata 规范化歌词文件的元数据
package metadata

import (
	"fmt"
	"sort"
	"strings"

	"lyricconv/pkg/lyric"
)

// Store 元数据存储，键为规范键，值保持插入顺序
type Store struct {
	data map[Key][]string
}

// NewStore 创建空的存储
func NewStore() *Store {
	return &Store{data: make(map[Key][]string)}
}

// FromRaw 由解析器产生的原始映射构造
func FromRaw(raw map[string][]string) *Store {
	s := NewStore()
	s.LoadFromRaw(raw)
	return s
}

// Add 追加一个值，空值忽略
func (s *Store) Add(key string, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	k := ParseKey(key)
	s.data[k] = append(s.data[k], value)
}

// Set 覆盖为单个值
func (s *Store) Set(key Key, value string) {
	s.data[key] = []string{value}
}

// SetMultiple 覆盖为多个值
func (s *Store) SetMultiple(key Key, values []string) {
	s.data[key] = append([]string(nil), values...)
}

// Get 返回第一个值
func (s *Store) Get(key Key) (string, bool) {
	vs := s.data[key]
	if len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// GetAll 返回全部值
func (s *Store) GetAll(key Key) []string {
	return s.data[key]
}

// Remove 删除一个键
func (s *Store) Remove(key Key) {
	delete(s.data, key)
}

// Clear 清空
func (s *Store) Clear() {
	s.data = make(map[Key][]string)
}

// Len 键数量
func (s *Store) Len() int {
	return len(s.data)
}

// Deduplicate 每个键的值去空白、去空、排序、去重
func (s *Store) Deduplicate() {
	for k, vs := range s.data {
		cleaned := make([]string, 0, len(vs))
		for _, v := range vs {
			if v = strings.TrimSpace(v); v != "" {
				cleaned = append(cleaned, v)
			}
		}
		sort.Strings(cleaned)
		out := cleaned[:0]
		for i, v := range cleaned {
			if i == 0 || v != cleaned[i-1] {
				out = append(out, v)
			}
		}
		if len(out) == 0 {
			delete(s.data, k)
			continue
		}
		s.data[k] = out
	}
}

// LoadFromRaw 合并原始映射；"/" 分隔的艺人会被拆开
func (s *Store) LoadFromRaw(raw map[string][]string) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, rk := range keys {
		k := ParseKey(rk)
		for _, v := range raw[rk] {
			if k == Artist || k == Songwriter {
				for _, part := range strings.Split(v, "/") {
					s.Add(rk, part)
				}
				continue
			}
			s.Add(rk, v)
		}
	}
}

// Raw 输出字符串键的映射
func (s *Store) Raw() map[string][]string {
	out := make(map[string][]string, len(s.data))
	for k, vs := range s.data {
		out[string(k)] = append([]string(nil), vs...)
	}
	return out
}

// Keys 按显示顺序返回所有键
func (s *Store) Keys() []Key {
	keys := make([]Key, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := keys[i].Rank(), keys[j].Rank()
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// CustomKeys 排序后的自定义键
func (s *Store) CustomKeys() []Key {
	var out []Key
	for _, k := range s.Keys() {
		if !k.IsCanonical() {
			out = append(out, k)
		}
	}
	return out
}

// LRCHeader 生成 LRC 头部标签
func (s *Store) LRCHeader() string {
	var b strings.Builder
	tags := []struct {
		tag string
		key Key
	}{
		{"ti", Title},
		{"ar", Artist},
		{"al", Album},
		{"by", TtmlAuthorGithubLogin},
		{"language", Language},
		{"offset", Offset},
	}
	for _, t := range tags {
		if vs := s.data[t.key]; len(vs) > 0 {
			fmt.Fprintf(&b, "[%s:%s]\n", t.tag, strings.Join(vs, "/"))
		}
	}
	return b.String()
}

// Agents 从 "id=name" 形式的值构造演唱者列表；v1000 或 合 视为合唱
func (s *Store) Agents(key Key) []lyric.Agent {
	var agents []lyric.Agent
	for _, v := range s.data[key] {
		id, name, _ := strings.Cut(v, "=")
		id, name = strings.TrimSpace(id), strings.TrimSpace(name)
		if id == "" {
			continue
		}
		typ := lyric.AgentPerson
		if id == "v1000" || id == "合" {
			typ = lyric.AgentGroup
		}
		agents = append(agents, lyric.Agent{ID: id, Name: name, Type: typ})
	}
	return agents
}
