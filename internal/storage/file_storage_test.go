// internal/storage/file_storage_test.go
package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func newTestStorage(t *testing.T) *FileStorage {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "storage_test_*")
	if err != nil {
		t.Fatalf("创建临时目录失败: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	fs, err := NewFileStorage(tempDir)
	if err != nil {
		t.Fatalf("创建文件存储失败: %v", err)
	}
	return fs
}

// TestSaveAndLoadTextFile 文本文件往返
func TestSaveAndLoadTextFile(t *testing.T) {
	fs := newTestStorage(t)

	content := []byte("场景内容")
	if err := fs.SaveTextFile("chapter1", "scene01.json", content); err != nil {
		t.Fatalf("保存文件失败: %v", err)
	}

	loaded, err := fs.LoadTextFile("chapter1", "scene01.json")
	if err != nil {
		t.Fatalf("读取文件失败: %v", err)
	}
	if string(loaded) != string(content) {
		t.Fatalf("内容不符: %s", loaded)
	}
}

// TestSaveTextFileNoTempLeftover 原子写入不应留下临时文件
func TestSaveTextFileNoTempLeftover(t *testing.T) {
	fs := newTestStorage(t)

	if err := fs.SaveTextFile("saves", "autosave.json", []byte("{}")); err != nil {
		t.Fatalf("保存文件失败: %v", err)
	}

	tempPath := filepath.Join(fs.BaseDir, "saves", "autosave.json.tmp")
	if _, err := os.Stat(tempPath); !os.IsNotExist(err) {
		t.Fatal("写入完成后不应留下临时文件")
	}
}

// TestSaveAndLoadJSONFile JSON文件往返
func TestSaveAndLoadJSONFile(t *testing.T) {
	fs := newTestStorage(t)

	data := map[string]interface{}{
		"currentScene": "chapter1_scene01",
	}
	if err := fs.SaveJSONFile("saves", "autosave.json", data); err != nil {
		t.Fatalf("保存JSON失败: %v", err)
	}

	var loaded map[string]interface{}
	if err := fs.LoadJSONFile("saves", "autosave.json", &loaded); err != nil {
		t.Fatalf("读取JSON失败: %v", err)
	}
	if loaded["currentScene"] != "chapter1_scene01" {
		t.Fatalf("JSON内容不符: %v", loaded)
	}
}

// TestFileExists 文件存在性检查
func TestFileExists(t *testing.T) {
	fs := newTestStorage(t)

	if fs.FileExists("saves", "autosave.json") {
		t.Fatal("不存在的文件不应报告存在")
	}

	if err := fs.SaveTextFile("saves", "autosave.json", []byte("{}")); err != nil {
		t.Fatalf("保存文件失败: %v", err)
	}

	if !fs.FileExists("saves", "autosave.json") {
		t.Fatal("已保存的文件应报告存在")
	}
}

// TestDeleteFileIdempotent 删除是幂等的
func TestDeleteFileIdempotent(t *testing.T) {
	fs := newTestStorage(t)

	if err := fs.SaveTextFile("saves", "autosave.json", []byte("{}")); err != nil {
		t.Fatalf("保存文件失败: %v", err)
	}

	if err := fs.DeleteFile("saves", "autosave.json"); err != nil {
		t.Fatalf("删除文件失败: %v", err)
	}
	if fs.FileExists("saves", "autosave.json") {
		t.Fatal("删除后文件不应存在")
	}

	if err := fs.DeleteFile("saves", "autosave.json"); err != nil {
		t.Fatalf("重复删除应同样成功: %v", err)
	}
}

// TestListDirs 列出子目录
func TestListDirs(t *testing.T) {
	fs := newTestStorage(t)

	if err := fs.SaveTextFile("chapter1", "scene01.json", []byte("{}")); err != nil {
		t.Fatalf("保存文件失败: %v", err)
	}
	if err := fs.SaveTextFile("chapter2", "scene01.json", []byte("{}")); err != nil {
		t.Fatalf("保存文件失败: %v", err)
	}

	dirs, err := fs.ListDirs("")
	if err != nil {
		t.Fatalf("列出目录失败: %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("应有2个章节目录，实际为 %v", dirs)
	}
}

// TestConcurrentSaveSameFile 并发写同一文件不应交错或丢失
func TestConcurrentSaveSameFile(t *testing.T) {
	fs := newTestStorage(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fs.SaveTextFile("saves", "autosave.json", []byte(`{"ok":true}`)); err != nil {
				t.Errorf("并发保存失败: %v", err)
			}
		}()
	}
	wg.Wait()

	var loaded map[string]bool
	if err := fs.LoadJSONFile("saves", "autosave.json", &loaded); err != nil {
		t.Fatalf("并发写入后文件应完整可读: %v", err)
	}
	if !loaded["ok"] {
		t.Fatalf("并发写入后内容不符: %v", loaded)
	}
}
