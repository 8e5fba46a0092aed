// internal/services/script_service_test.go
package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	apperrors "github.com/MiyabiWorks/NovelEngine/internal/errors"
	"github.com/MiyabiWorks/NovelEngine/internal/models"
)

// 测试前的设置工作：创建临时内容目录
func setupContentDir(t *testing.T) string {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "content_test_*")
	if err != nil {
		t.Fatalf("创建临时内容目录失败: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	return tempDir
}

func writeContentFile(t *testing.T, baseDir, relPath, content string) {
	t.Helper()

	fullPath := filepath.Join(baseDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		t.Fatalf("创建内容子目录失败: %v", err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		t.Fatalf("写入内容文件失败: %v", err)
	}
}

func newTestScriptService(t *testing.T, contentDir string) *ScriptService {
	t.Helper()

	service, err := NewScriptService(contentDir)
	if err != nil {
		t.Fatalf("创建脚本服务失败: %v", err)
	}
	return service
}

// TestResolveScenePath 场景ID路由规则
func TestResolveScenePath(t *testing.T) {
	tests := []struct {
		sceneID  string
		chapter  string
		filename string
	}{
		{"chapter2_scene05", "chapter2", "scene05.json"},
		{"intro", "chapter1", "intro.json"},
		{"chapter1_scene01", "chapter1", "scene01.json"},
		// 多个分隔符时只在第一个下划线处拆分
		{"chapter3_scene_final", "chapter3", "scene_final.json"},
	}

	for _, tt := range tests {
		chapter, filename := ResolveScenePath(tt.sceneID)
		if chapter != tt.chapter || filename != tt.filename {
			t.Errorf("ResolveScenePath(%q) = (%q, %q)，期望 (%q, %q)",
				tt.sceneID, chapter, filename, tt.chapter, tt.filename)
		}
	}
}

// TestLoadSceneNotFound 缺失的场景应报告未找到错误
func TestLoadSceneNotFound(t *testing.T) {
	contentDir := setupContentDir(t)
	service := newTestScriptService(t, contentDir)

	_, err := service.LoadScene("missing")
	if err == nil {
		t.Fatal("缺失的场景应返回错误")
	}
	if !apperrors.IsNotFoundError(err) {
		t.Fatalf("期望未找到错误，实际为: %v", err)
	}
}

// TestLoadSceneStructuredShape 新格式应按转换表规范化
func TestLoadSceneStructuredShape(t *testing.T) {
	contentDir := setupContentDir(t)
	writeContentFile(t, contentDir, "chapter1/s1.json", `{
		"scene": {"id": "s1", "title": "测试场景", "background": "bg.jpg", "music": "bgm.ogg"},
		"script": [
			{"type": "dialogue", "speaker": "yuki", "text": "你好"},
			{"type": "choice", "options": [
				{"text": "A", "next_scene": "s2"},
				{"text": "B"}
			]},
			{"type": "character_show", "character": "yuki", "position": "left"},
			{"type": "character_hide", "character": "yuki"},
			{"type": "background", "asset": "bg2.jpg"},
			{"type": "sound_effect", "asset": "ding.ogg"}
		]
	}`)

	service := newTestScriptService(t, contentDir)

	scene, err := service.LoadScene("chapter1_s1")
	if err != nil {
		t.Fatalf("加载场景失败: %v", err)
	}

	want := &models.Scene{
		ID:         "s1",
		Title:      "测试场景",
		Background: "bg.jpg",
		Music:      "bgm.ogg",
		Events: []models.SceneEvent{
			{Type: models.EventDialogue, Speaker: "yuki", Text: "你好"},
			{Type: models.EventChoice, Choices: []models.Choice{
				{ID: "choice_0", Text: "A", NextScene: "s2"},
				{ID: "choice_1", Text: "B"},
			}},
			{Type: models.EventShowCharacter, Character: "yuki", Position: "left"},
			{Type: models.EventHideCharacter, Character: "yuki"},
			{Type: models.EventChangeBackground, Background: "bg2.jpg"},
			{Type: models.EventPlaySfx, Sfx: "ding.ogg"},
		},
	}

	if diff := cmp.Diff(want, scene); diff != "" {
		t.Fatalf("规范化结果不符 (-want +got):\n%s", diff)
	}
}

// TestLoadSceneUnknownItemFallback 不识别的脚本条目降级为旁白对话
func TestLoadSceneUnknownItemFallback(t *testing.T) {
	contentDir := setupContentDir(t)
	writeContentFile(t, contentDir, "chapter1/s1.json", `{
		"scene": {"id": "s1", "title": "t"},
		"script": [
			{"type": "cutscene", "text": "过场动画"}
		]
	}`)

	service := newTestScriptService(t, contentDir)

	scene, err := service.LoadScene("s1")
	if err != nil {
		t.Fatalf("加载场景失败: %v", err)
	}

	want := models.SceneEvent{
		Type:    models.EventDialogue,
		Speaker: "narrator",
		Text:    "过场动画",
	}
	if diff := cmp.Diff(want, scene.Events[0]); diff != "" {
		t.Fatalf("降级结果不符 (-want +got):\n%s", diff)
	}
}

// TestLoadSceneStructuredEndFallback 结构化格式的end条目没有专门的转换规则，
// 和其他未知类型一样降级为旁白对话，不会终止播放
func TestLoadSceneStructuredEndFallback(t *testing.T) {
	contentDir := setupContentDir(t)
	writeContentFile(t, contentDir, "chapter1/s1.json", `{
		"scene": {"id": "s1", "title": "t"},
		"script": [
			{"type": "end", "text": "fin"}
		]
	}`)

	service := newTestScriptService(t, contentDir)

	scene, err := service.LoadScene("s1")
	if err != nil {
		t.Fatalf("加载场景失败: %v", err)
	}

	want := models.SceneEvent{
		Type:    models.EventDialogue,
		Speaker: "narrator",
		Text:    "fin",
	}
	if diff := cmp.Diff(want, scene.Events[0]); diff != "" {
		t.Fatalf("end条目应降级为旁白对话 (-want +got):\n%s", diff)
	}
}

// TestLoadSceneLegacyShape 旧格式直接使用
func TestLoadSceneLegacyShape(t *testing.T) {
	contentDir := setupContentDir(t)
	writeContentFile(t, contentDir, "chapter1/legacy.json", `{
		"id": "legacy",
		"title": "旧格式",
		"events": [
			{"type": "dialogue", "speaker": "haru", "text": "旧场景", "backgroundChange": "bg3.jpg"},
			{"type": "end"}
		]
	}`)

	service := newTestScriptService(t, contentDir)

	scene, err := service.LoadScene("legacy")
	if err != nil {
		t.Fatalf("加载旧格式场景失败: %v", err)
	}

	if scene.Title != "旧格式" {
		t.Fatalf("标题不符: %s", scene.Title)
	}
	if len(scene.Events) != 2 {
		t.Fatalf("事件数量应为2，实际为 %d", len(scene.Events))
	}
	if scene.Events[0].BackgroundChange != "bg3.jpg" {
		t.Fatalf("对话附带的背景切换丢失: %+v", scene.Events[0])
	}
	if scene.Events[1].Type != models.EventEnd {
		t.Fatalf("第二个事件应为end，实际为 %s", scene.Events[1].Type)
	}
}

// TestLoadSceneMalformed 无法解析的内容应报告格式错误
func TestLoadSceneMalformed(t *testing.T) {
	contentDir := setupContentDir(t)
	writeContentFile(t, contentDir, "chapter1/bad.json", `{not valid json`)

	service := newTestScriptService(t, contentDir)

	_, err := service.LoadScene("bad")
	if err == nil {
		t.Fatal("无效内容应返回错误")
	}
	if !apperrors.IsMalformedContentError(err) {
		t.Fatalf("期望内容格式错误，实际为: %v", err)
	}
}

// TestLoadCharactersObjectShape 对象格式的角色表
func TestLoadCharactersObjectShape(t *testing.T) {
	contentDir := setupContentDir(t)
	writeContentFile(t, contentDir, "characters.json", `{
		"characters": {
			"yuki": {"name": "小雪", "color": "#7EC8E3", "avatar": "yuki.png"}
		}
	}`)

	service := newTestScriptService(t, contentDir)

	characters := service.LoadCharacters()
	char, ok := characters["yuki"]
	if !ok {
		t.Fatal("角色表中应包含 yuki")
	}
	if char.ID != "yuki" || char.Name != "小雪" {
		t.Fatalf("角色元数据不符: %+v", char)
	}
}

// TestLoadCharactersArrayShape 数组格式的角色表（向后兼容）
func TestLoadCharactersArrayShape(t *testing.T) {
	contentDir := setupContentDir(t)
	writeContentFile(t, contentDir, "characters.json", `[
		{"id": "haru", "name": "小春", "color": "#F4A7B9"}
	]`)

	service := newTestScriptService(t, contentDir)

	characters := service.LoadCharacters()
	if _, ok := characters["haru"]; !ok {
		t.Fatal("角色表中应包含 haru")
	}
}

// TestLoadCharactersMissingFile 角色文件缺失应降级为空表而不是失败
func TestLoadCharactersMissingFile(t *testing.T) {
	contentDir := setupContentDir(t)
	service := newTestScriptService(t, contentDir)

	characters := service.LoadCharacters()
	if len(characters) != 0 {
		t.Fatalf("缺失角色文件应得到空表，实际为 %d 个", len(characters))
	}
}

// TestGetCharacterInfoFallback 未知角色ID降级为ID作为名称、默认颜色
func TestGetCharacterInfoFallback(t *testing.T) {
	contentDir := setupContentDir(t)
	service := newTestScriptService(t, contentDir)

	char := service.GetCharacterInfo("stranger")
	if char.Name != "stranger" {
		t.Fatalf("未知角色应以原始ID作为名称，实际为 %s", char.Name)
	}
	if char.Color != models.DefaultCharacterColor {
		t.Fatalf("未知角色应使用默认颜色，实际为 %s", char.Color)
	}
}

// TestLoadManifest 内容清单加载
func TestLoadManifest(t *testing.T) {
	contentDir := setupContentDir(t)
	writeContentFile(t, contentDir, "manifest.yaml", `title: 测试内容包
entry_scene: chapter1_s1
chapters:
  - chapter1
`)

	service := newTestScriptService(t, contentDir)

	manifest, err := service.LoadManifest()
	if err != nil {
		t.Fatalf("加载清单失败: %v", err)
	}
	if manifest == nil {
		t.Fatal("清单不应为nil")
	}
	if manifest.EntryScene != "chapter1_s1" {
		t.Fatalf("入口场景不符: %s", manifest.EntryScene)
	}
}

// TestLoadManifestMissing 清单缺失不是错误
func TestLoadManifestMissing(t *testing.T) {
	contentDir := setupContentDir(t)
	service := newTestScriptService(t, contentDir)

	manifest, err := service.LoadManifest()
	if err != nil {
		t.Fatalf("清单缺失不应报错: %v", err)
	}
	if manifest != nil {
		t.Fatal("清单缺失应返回nil")
	}
}
