package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/plantcare/internal/db"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"
)

// ErrEncyclopediaNotFound 在百科条目不存在时返回
var ErrEncyclopediaNotFound = errors.New("encyclopedia entry not found")

// EncyclopediaView 是渲染后的百科条目
type EncyclopediaView struct {
	Entry         db.EncyclopediaEntry
	CareRulesHTML template.HTML
}

// EncyclopediaService 提供百科查询，护理说明以 Markdown 渲染并做 XSS 过滤
type EncyclopediaService struct {
	db        *gorm.DB
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewEncyclopediaService 构造 EncyclopediaService
func NewEncyclopediaService(gdb *gorm.DB) *EncyclopediaService {
	return &EncyclopediaService{
		db: gdb,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify),
			goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
		),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// List 返回全部条目，按名称排序
func (s *EncyclopediaService) List(ctx context.Context) ([]db.EncyclopediaEntry, error) {
	var entries []db.EncyclopediaEntry
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list encyclopedia: %w", err)
	}
	return entries, nil
}

// GetByName 按名称（不区分大小写）查找条目并渲染护理说明
func (s *EncyclopediaService) GetByName(ctx context.Context, name string) (*EncyclopediaView, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, ErrEncyclopediaNotFound
	}

	var entry db.EncyclopediaEntry
	if err := s.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", trimmed).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEncyclopediaNotFound
		}
		return nil, fmt.Errorf("get encyclopedia entry: %w", err)
	}

	rendered, err := s.Render(entry.CareRules)
	if err != nil {
		return nil, err
	}

	return &EncyclopediaView{Entry: entry, CareRulesHTML: rendered}, nil
}

// Render 把 Markdown 渲染为过滤后的 HTML
func (s *EncyclopediaService) Render(markdown string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(s.sanitizer.SanitizeBytes(buf.Bytes())), nil
}
