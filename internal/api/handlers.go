// internal/api/handlers.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/MiyabiWorks/NovelEngine/internal/errors"
	"github.com/MiyabiWorks/NovelEngine/internal/models"
	"github.com/MiyabiWorks/NovelEngine/internal/services"
)

// Handler 处理API请求
// 表现层通过这些端点驱动引擎；所有状态变更都经过叙事引擎，
// 处理器本身从不直接修改会话状态
type Handler struct {
	EngineService *services.EngineService // 叙事引擎
	StateService  *services.StateService  // 会话状态
	ScriptService *services.ScriptService // 脚本仓库
	SaveService   *services.SaveService   // 持久化网关
	ExportService *services.ExportService // 转写导出
	WSManager     *WSManager              // WebSocket 连接管理器
}

// NewHandler 创建API处理器
func NewHandler(
	engineService *services.EngineService,
	stateService *services.StateService,
	scriptService *services.ScriptService,
	saveService *services.SaveService,
	exportService *services.ExportService,
) *Handler {
	return &Handler{
		EngineService: engineService,
		StateService:  stateService,
		ScriptService: scriptService,
		SaveService:   saveService,
		ExportService: exportService,
		WSManager:     NewWSManager(),
	}
}

// APIResponse 标准API响应格式
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIError 标准错误格式
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondOK 成功响应
func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// respondError 错误响应，按错误分类映射HTTP状态码
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"

	switch {
	case apperrors.IsNotFoundError(err):
		status = http.StatusNotFound
	case apperrors.IsValidationError(err):
		status = http.StatusBadRequest
	case apperrors.IsMalformedContentError(err):
		status = http.StatusUnprocessableEntity
	case apperrors.IsPersistenceError(err):
		status = http.StatusInternalServerError
	case apperrors.IsCollaboratorError(err):
		status = http.StatusBadGateway
	}

	if appErr, ok := err.(*apperrors.AppError); ok {
		code = appErr.Code
	}

	c.JSON(status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: err.Error(),
		},
		Timestamp: time.Now(),
	})
}

// GameStatusResponse 会话状态加上引擎级信息
type GameStatusResponse struct {
	State         models.GameState        `json:"state"`
	EngineStatus  services.EngineState    `json:"engine_status"`
	SceneProgress services.CursorProgress `json:"scene_progress"`
	HasSave       bool                    `json:"has_save"`
	OnlineClients int                     `json:"online_clients"`
}

// IndexPage 主页面
func (h *Handler) IndexPage(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title": "NovelEngine",
	})
}

// GetGameStatus 返回完整的会话状态快照
func (h *Handler) GetGameStatus(c *gin.Context) {
	respondOK(c, GameStatusResponse{
		State:         h.StateService.Snapshot(),
		EngineStatus:  h.EngineService.EngineStatus(),
		SceneProgress: h.EngineService.SceneProgress(),
		HasSave:       h.SaveService.HasSave(),
		OnlineClients: h.WSManager.ClientCount(),
	})
}

// StartNewGame 开始新游戏
func (h *Handler) StartNewGame(c *gin.Context) {
	if err := h.EngineService.StartNewGame(); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, h.StateService.Snapshot())
}

// ContinueGame 从存档继续
func (h *Handler) ContinueGame(c *gin.Context) {
	if err := h.EngineService.ContinueGame(); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, h.StateService.Snapshot())
}

// AdvanceGame 推进到下一个事件（玩家点击"前进"）
func (h *Handler) AdvanceGame(c *gin.Context) {
	if err := h.EngineService.NextEvent(); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, h.StateService.Snapshot())
}

// MakeChoiceRequest 选择请求
type MakeChoiceRequest struct {
	ChoiceID string `json:"choice_id" binding:"required"`
}

// MakeChoice 处理玩家选择
func (h *Handler) MakeChoice(c *gin.Context) {
	var req MakeChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("无效的选择请求", err))
		return
	}

	if err := h.EngineService.MakeChoice(req.ChoiceID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, h.StateService.Snapshot())
}

// PauseGame 暂停
func (h *Handler) PauseGame(c *gin.Context) {
	h.EngineService.Pause()
	respondOK(c, h.StateService.Snapshot())
}

// ResumeGame 恢复
func (h *Handler) ResumeGame(c *gin.Context) {
	h.EngineService.Resume()
	respondOK(c, h.StateService.Snapshot())
}

// SaveGame 手动存档
func (h *Handler) SaveGame(c *gin.Context) {
	if err := h.EngineService.SaveGame(); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"saved": true})
}

// GetSaveInfo 查询存档是否存在
func (h *Handler) GetSaveInfo(c *gin.Context) {
	info := gin.H{"exists": h.SaveService.HasSave()}

	if save, err := h.SaveService.LoadGame(); err == nil && save != nil {
		info["timestamp"] = save.Timestamp
		info["version"] = save.Version
		info["scene"] = save.CurrentScene
	}

	respondOK(c, info)
}

// DeleteSave 删除存档，幂等
func (h *Handler) DeleteSave(c *gin.Context) {
	if err := h.SaveService.DeleteSave(); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

// GetSettings 获取当前设置
func (h *Handler) GetSettings(c *gin.Context) {
	respondOK(c, h.StateService.Settings())
}

// UpdateSettings 更新设置
func (h *Handler) UpdateSettings(c *gin.Context) {
	var settings models.GameSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		respondError(c, apperrors.NewValidationError("无效的设置", err))
		return
	}

	if err := h.EngineService.UpdateSettings(settings); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, settings)
}

// GetCharacters 返回角色元数据表
func (h *Handler) GetCharacters(c *gin.Context) {
	respondOK(c, h.ScriptService.LoadCharacters())
}

// GetCharacter 返回单个角色元数据，未知ID降级为ID作为名称
func (h *Handler) GetCharacter(c *gin.Context) {
	respondOK(c, h.ScriptService.GetCharacterInfo(c.Param("id")))
}

// GetScene 返回规范化后的场景数据，供调试和预览
func (h *Handler) GetScene(c *gin.Context) {
	scene, err := h.ScriptService.LoadScene(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, scene)
}

// GetContentInfo 返回内容包清单
func (h *Handler) GetContentInfo(c *gin.Context) {
	manifest, err := h.ScriptService.LoadManifest()
	if err != nil {
		respondError(c, err)
		return
	}
	if manifest == nil {
		respondOK(c, gin.H{"manifest": nil})
		return
	}
	respondOK(c, manifest)
}

// ExportTranscriptRequest 导出请求
type ExportTranscriptRequest struct {
	Format string `json:"format"`
}

// ExportTranscript 导出本次游玩的对话转写
func (h *Handler) ExportTranscript(c *gin.Context) {
	var req ExportTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("无效的导出请求", err))
		return
	}
	if req.Format == "" {
		req.Format = "txt"
	}

	result, err := h.ExportService.ExportTranscript(req.Format)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}
