package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shifthero/shifthero/pkg/errors"
)

// StoredConfig 已保存的团队配置。
// Payload 保存上传时的原始JSON，读取时原样返回。
type StoredConfig struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TeamConfigRepository 团队配置仓储
type TeamConfigRepository struct {
	db DB
}

// NewTeamConfigRepository 创建团队配置仓储
func NewTeamConfigRepository(db DB) *TeamConfigRepository {
	return &TeamConfigRepository{db: db}
}

// Save 保存团队配置（同名配置覆盖更新）
func (r *TeamConfigRepository) Save(ctx context.Context, cfg *StoredConfig) error {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	now := time.Now()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	query := `
		INSERT INTO team_configs (id, name, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, cfg.ID, cfg.Name, []byte(cfg.Payload), cfg.CreatedAt, cfg.UpdatedAt); err != nil {
		return fmt.Errorf("保存团队配置失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取团队配置
func (r *TeamConfigRepository) GetByID(ctx context.Context, id uuid.UUID) (*StoredConfig, error) {
	query := `
		SELECT id, name, payload, created_at, updated_at
		FROM team_configs
		WHERE id = $1
	`
	return r.scanConfig(r.db.QueryRowContext(ctx, query, id))
}

// GetByName 根据名称获取团队配置
func (r *TeamConfigRepository) GetByName(ctx context.Context, name string) (*StoredConfig, error) {
	query := `
		SELECT id, name, payload, created_at, updated_at
		FROM team_configs
		WHERE name = $1
	`
	return r.scanConfig(r.db.QueryRowContext(ctx, query, name))
}

// List 分页列出团队配置
func (r *TeamConfigRepository) List(ctx context.Context, filter ListFilter) ([]*StoredConfig, int, error) {
	where := ""
	args := []interface{}{}
	if filter.Search != "" {
		where = "WHERE name ILIKE $1"
		args = append(args, "%"+filter.Search+"%")
	}

	countQuery := "SELECT COUNT(*) FROM team_configs " + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计团队配置失败: %w", err)
	}

	orderBy := filter.OrderBy
	switch orderBy {
	case "name", "created_at", "updated_at":
	default:
		orderBy = "updated_at"
	}
	orderDir := "DESC"
	if filter.OrderDir == "asc" {
		orderDir = "ASC"
	}

	query := fmt.Sprintf(
		"SELECT id, name, payload, created_at, updated_at FROM team_configs %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		where, orderBy, orderDir, len(args)+1, len(args)+2,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询团队配置失败: %w", err)
	}
	defer rows.Close()

	var configs []*StoredConfig
	for rows.Next() {
		cfg, err := r.scanConfig(rows)
		if err != nil {
			return nil, 0, err
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("遍历团队配置失败: %w", err)
	}

	return configs, total, nil
}

// Delete 删除团队配置
func (r *TeamConfigRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM team_configs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("删除团队配置失败: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("team_config", id.String())
	}
	return nil
}

// scanConfig 扫描单行团队配置
func (r *TeamConfigRepository) scanConfig(s Scanner) (*StoredConfig, error) {
	var cfg StoredConfig
	var payload []byte
	if err := s.Scan(&cfg.ID, &cfg.Name, &payload, &cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("team_config", "")
		}
		return nil, fmt.Errorf("读取团队配置失败: %w", err)
	}
	cfg.Payload = payload
	return &cfg, nil
}
