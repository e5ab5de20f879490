package content

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TipList 描述一组故障排查话术及其触发关键词。
type TipList struct {
	Topic    string   `yaml:"topic"`
	Keywords []string `yaml:"keywords"`
	Message  string   `yaml:"message"`
}

// Definitions 对应 configs/content.yaml 的文件结构。
// 所有字段均可省略，省略时使用内置默认话术。
type Definitions struct {
	SocialLinks     string    `yaml:"social_links"`
	Schedule        string    `yaml:"schedule"`
	FeedbackPrompt  string    `yaml:"feedback_prompt"`
	ViewerCount     string    `yaml:"viewer_count"`
	Unknown         string    `yaml:"unknown"`
	Troubleshooting []TipList `yaml:"troubleshooting"`
	GenericTips     string    `yaml:"generic_tips"`
}

// Catalog 保存所有静态话术，并提供故障排查关键词匹配。
// 话术在构造时固定，之后只读，可被多个 goroutine 并发使用。
type Catalog struct {
	socialLinks    string
	schedule       string
	feedbackPrompt string
	viewerCount    string
	unknown        string
	tips           []TipList
	genericTips    string
}

// NewCatalog 基于内置默认话术创建目录，defs 中非空字段覆盖默认值。
func NewCatalog(defs Definitions) *Catalog {
	catalog := &Catalog{
		socialLinks:    defaultSocialLinks,
		schedule:       defaultSchedule,
		feedbackPrompt: defaultFeedbackPrompt,
		viewerCount:    defaultViewerCount,
		unknown:        defaultUnknown,
		tips:           defaultTips(),
		genericTips:    defaultGenericTips,
	}
	if text := strings.TrimSpace(defs.SocialLinks); text != "" {
		catalog.socialLinks = text
	}
	if text := strings.TrimSpace(defs.Schedule); text != "" {
		catalog.schedule = text
	}
	if text := strings.TrimSpace(defs.FeedbackPrompt); text != "" {
		catalog.feedbackPrompt = text
	}
	if text := strings.TrimSpace(defs.ViewerCount); text != "" {
		catalog.viewerCount = text
	}
	if text := strings.TrimSpace(defs.Unknown); text != "" {
		catalog.unknown = text
	}
	if len(defs.Troubleshooting) > 0 {
		catalog.tips = sanitizeTips(defs.Troubleshooting)
	}
	if text := strings.TrimSpace(defs.GenericTips); text != "" {
		catalog.genericTips = text
	}
	return catalog
}

// Load 从 YAML 文件加载话术并与默认值合并。
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("话术文件路径不能为空")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取话术文件失败: %w", err)
	}

	var defs Definitions
	if err := yaml.Unmarshal(content, &defs); err != nil {
		return nil, fmt.Errorf("解析话术文件失败: %w", err)
	}
	return NewCatalog(defs), nil
}

// SocialLinks 返回社交平台链接话术。
func (c *Catalog) SocialLinks() string { return c.socialLinks }

// Schedule 返回直播时间表话术。
func (c *Catalog) Schedule() string { return c.schedule }

// FeedbackPrompt 返回征集反馈话术。
func (c *Catalog) FeedbackPrompt() string { return c.feedbackPrompt }

// ViewerCount 返回观众数功能的占位话术。
func (c *Catalog) ViewerCount() string { return c.viewerCount }

// Unknown 返回未识别意图时的兜底话术。
func (c *Catalog) Unknown() string { return c.unknown }

// MatchTip 根据用户消息匹配故障排查话术。
// 匹配不区分大小写，按话术列表顺序取第一个命中的条目；都未命中时返回通用话术。
func (c *Catalog) MatchTip(message string) string {
	normalized := strings.ToLower(message)
	for _, tip := range c.tips {
		for _, keyword := range tip.Keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(normalized, keyword) {
				return tip.Message
			}
		}
	}
	return c.genericTips
}

func sanitizeTips(tips []TipList) []TipList {
	cleaned := make([]TipList, 0, len(tips))
	for _, tip := range tips {
		keywords := make([]string, 0, len(tip.Keywords))
		for _, keyword := range tip.Keywords {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword != "" {
				keywords = append(keywords, keyword)
			}
		}
		if len(keywords) == 0 || strings.TrimSpace(tip.Message) == "" {
			continue
		}
		cleaned = append(cleaned, TipList{
			Topic:    strings.TrimSpace(tip.Topic),
			Keywords: keywords,
			Message:  strings.TrimSpace(tip.Message),
		})
	}
	return cleaned
}
