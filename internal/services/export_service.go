// internal/services/export_service.go
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	apperrors "github.com/MiyabiWorks/NovelEngine/internal/errors"
	"github.com/MiyabiWorks/NovelEngine/internal/storage"
)

// ExportResult 导出结果
type ExportResult struct {
	Format      string    `json:"format"`
	FilePath    string    `json:"file_path"`
	LineCount   int       `json:"line_count"`
	GeneratedAt time.Time `json:"generated_at"`
}

// exportEntry 导出文件中的一行对话
type exportEntry struct {
	Speaker string `json:"speaker"`
	Name    string `json:"name"`
	Text    string `json:"text"`
	SceneID string `json:"scene_id"`
}

// ExportService 把本次游玩的对话历史导出为可读的转写文件
type ExportService struct {
	State   *StateService
	Script  *ScriptService
	Storage *storage.FileStorage
}

// NewExportService 创建导出服务，导出文件写入 dataDir/exports
func NewExportService(state *StateService, script *ScriptService, dataDir string) (*ExportService, error) {
	if dataDir == "" {
		dataDir = "data"
	}

	fileStorage, err := storage.NewFileStorage(dataDir)
	if err != nil {
		return nil, fmt.Errorf("创建导出存储失败: %w", err)
	}

	return &ExportService{
		State:   state,
		Script:  script,
		Storage: fileStorage,
	}, nil
}

// ExportTranscript 导出当前会话的对话转写
// 支持的格式：json, txt, pdf
func (s *ExportService) ExportTranscript(format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))

	history := s.State.History()
	if len(history) == 0 {
		return nil, apperrors.NewValidationError("没有可导出的对话历史", nil)
	}

	entries := make([]exportEntry, 0, len(history))
	for _, line := range history {
		entries = append(entries, exportEntry{
			Speaker: line.Speaker,
			Name:    s.Script.GetCharacterInfo(line.Speaker).Name,
			Text:    line.Text,
			SceneID: line.SceneID,
		})
	}

	var content []byte
	var err error

	switch format {
	case "json":
		content, err = json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return nil, apperrors.NewPersistenceError("序列化转写失败", err)
		}
	case "txt":
		content = formatTextTranscript(entries)
	case "pdf":
		content, err = formatPDFTranscript(entries)
		if err != nil {
			return nil, apperrors.NewPersistenceError("生成PDF转写失败", err)
		}
	default:
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("不支持的导出格式: %s，支持的格式: json, txt, pdf", format), nil)
	}

	filename := fmt.Sprintf("transcript_%s.%s", time.Now().Format("20060102_150405"), format)
	if err := s.Storage.SaveTextFile("exports", filename, content); err != nil {
		return nil, apperrors.NewPersistenceError("保存导出文件失败", err)
	}

	return &ExportResult{
		Format:      format,
		FilePath:    "exports/" + filename,
		LineCount:   len(entries),
		GeneratedAt: time.Now(),
	}, nil
}

// formatTextTranscript 纯文本格式：每行 "名称: 台词"，按场景分组
func formatTextTranscript(entries []exportEntry) []byte {
	var buf bytes.Buffer

	currentScene := ""
	for _, entry := range entries {
		if entry.SceneID != currentScene {
			currentScene = entry.SceneID
			fmt.Fprintf(&buf, "\n=== %s ===\n", currentScene)
		}
		fmt.Fprintf(&buf, "%s: %s\n", entry.Name, entry.Text)
	}

	return buf.Bytes()
}

// formatPDFTranscript PDF格式转写
func formatPDFTranscript(entries []exportEntry) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Play Transcript"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, time.Now().Format("2006-01-02 15:04:05"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	currentScene := ""
	for _, entry := range entries {
		if entry.SceneID != currentScene {
			currentScene = entry.SceneID
			pdf.Ln(3)
			pdf.SetFont("Helvetica", "B", 12)
			pdf.CellFormat(0, 8, tr(currentScene), "B", 1, "L", false, 0, "")
			pdf.Ln(1)
		}

		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(35, 6, tr(entry.Name), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 6, tr(entry.Text), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
