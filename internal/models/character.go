// internal/models/character.go
package models

// DefaultCharacterColor 未知角色的默认显示颜色
const DefaultCharacterColor = "#CCCCCC"

// CharacterData 角色元数据，加载一次后只读
type CharacterData struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Avatar string `json:"avatar,omitempty"`
}

// CharacterFile 角色内容文件的对象格式：{"characters": {<id>: {...}}}
// 兼容的数组格式由加载器单独处理
type CharacterFile struct {
	Characters map[string]CharacterData `json:"characters"`
}

// FallbackCharacter 为未知角色ID构造降级元数据：原始ID作为名称，默认颜色
func FallbackCharacter(id string) CharacterData {
	return CharacterData{
		ID:    id,
		Name:  id,
		Color: DefaultCharacterColor,
	}
}
