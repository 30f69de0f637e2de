package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shifthero/shifthero/internal/repository"
	"github.com/shifthero/shifthero/pkg/errors"
	"github.com/shifthero/shifthero/pkg/teamconfig"
)

// TeamConfigHandler 团队配置处理器。
// repo 为 nil 时（未配置数据库）存储相关端点返回503，CSV导入仍可用。
type TeamConfigHandler struct {
	repo *repository.TeamConfigRepository
}

// NewTeamConfigHandler 创建团队配置处理器
func NewTeamConfigHandler(repo *repository.TeamConfigRepository) *TeamConfigHandler {
	return &TeamConfigHandler{repo: repo}
}

// Configs 按方法分派团队配置的保存、查询和删除
func (h *TeamConfigHandler) Configs(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		err := errors.New(errors.CodeInternal, "数据库未配置，团队配置存储不可用")
		err.HTTPStatus = http.StatusServiceUnavailable
		respondError(w, err)
		return
	}

	switch r.Method {
	case http.MethodPost:
		h.save(w, r)
	case http.MethodGet:
		if r.URL.Query().Get("id") != "" || r.URL.Query().Get("name") != "" {
			h.get(w, r)
		} else {
			h.list(w, r)
		}
	case http.MethodDelete:
		h.delete(w, r)
	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "不支持的请求方法: "+r.Method))
	}
}

// SaveConfigRequest 保存团队配置请求
type SaveConfigRequest struct {
	Name   string              `json:"name"`
	Config teamconfig.Document `json:"config"`
}

// save 保存团队配置（同名覆盖）
func (h *TeamConfigHandler) save(w http.ResponseWriter, r *http.Request) {
	var req SaveConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if req.Name == "" {
		respondError(w, errors.InvalidInput("name", "配置名称不能为空"))
		return
	}

	// 保存前展开一次，拒绝无法使用的配置
	if _, _, err := req.Config.Materialize(); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "团队配置无效"))
		return
	}

	payload, err := req.Config.Marshal()
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInternal, "序列化团队配置失败"))
		return
	}

	stored := &repository.StoredConfig{Name: req.Name, Payload: payload}
	if err := h.repo.Save(r.Context(), stored); err != nil {
		respondError(w, toAppError(err))
		return
	}
	respondJSON(w, http.StatusOK, stored)
}

// get 按ID或名称查询团队配置
func (h *TeamConfigHandler) get(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if idStr := query.Get("id"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			respondError(w, errors.InvalidInput("id", "无效的配置ID格式"))
			return
		}
		cfg, err := h.repo.GetByID(r.Context(), id)
		if err != nil {
			respondError(w, toAppError(err))
			return
		}
		respondJSON(w, http.StatusOK, cfg)
		return
	}

	cfg, err := h.repo.GetByName(r.Context(), query.Get("name"))
	if err != nil {
		respondError(w, toAppError(err))
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// ListConfigsResponse 团队配置列表响应
type ListConfigsResponse struct {
	Items []*repository.StoredConfig `json:"items"`
	Total int                        `json:"total"`
}

// list 分页列出团队配置
func (h *TeamConfigHandler) list(w http.ResponseWriter, r *http.Request) {
	filter := repository.DefaultListFilter()
	query := r.URL.Query()
	if search := query.Get("search"); search != "" {
		filter = filter.WithSearch(search)
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil && limit > 0 {
		filter = filter.WithLimit(limit)
	}
	if offset, err := strconv.Atoi(query.Get("offset")); err == nil && offset >= 0 {
		filter = filter.WithOffset(offset)
	}

	items, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		respondError(w, toAppError(err))
		return
	}
	if items == nil {
		items = []*repository.StoredConfig{}
	}
	respondJSON(w, http.StatusOK, ListConfigsResponse{Items: items, Total: total})
}

// delete 删除团队配置
func (h *TeamConfigHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		respondError(w, errors.InvalidInput("id", "无效的配置ID格式"))
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		respondError(w, toAppError(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"deleted": true})
}

// ImportCSVRequest CSV导入请求（粘贴的员工名单文本）
type ImportCSVRequest struct {
	Text string `json:"text"`
}

// ImportCSVResponse CSV导入响应
type ImportCSVResponse struct {
	Staff   []teamconfig.StaffEntry `json:"staff"`
	Skipped int                     `json:"skipped"`
}

// ImportCSV 解析粘贴的员工名单文本
func (h *TeamConfigHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req ImportCSVRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	entries, skipped := teamconfig.ParseStaffCSV(req.Text)
	if entries == nil {
		entries = []teamconfig.StaffEntry{}
	}
	respondJSON(w, http.StatusOK, ImportCSVResponse{Staff: entries, Skipped: skipped})
}
