package textproc

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SkillCategory 技能词表中的一个分类
type SkillCategory struct {
	Name   string   `yaml:"name"`
	Skills []string `yaml:"skills"`
}

// SkillVocabulary 技能词表。静态、带版本号，扩充词表只需要换数据不需要改代码。
type SkillVocabulary struct {
	Version    string          `yaml:"version"`
	Categories []SkillCategory `yaml:"categories"`
}

// All 按分类顺序展开全部技能词。返回顺序即提取顺序，
// 下游模糊匹配的平局裁决依赖这个确定性顺序。
func (v *SkillVocabulary) All() []string {
	var all []string
	for _, cat := range v.Categories {
		all = append(all, cat.Skills...)
	}
	return all
}

// LoadSkillVocabulary 从YAML文件加载技能词表
func LoadSkillVocabulary(path string) (*SkillVocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取技能词表失败: %w", err)
	}
	var vocab SkillVocabulary
	if err := yaml.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("解析技能词表失败: %w", err)
	}
	if len(vocab.Categories) == 0 {
		return nil, fmt.Errorf("技能词表为空: %s", path)
	}
	return &vocab, nil
}

// DefaultSkillVocabulary 内置技能词表
func DefaultSkillVocabulary() *SkillVocabulary {
	return &SkillVocabulary{
		Version: "2024.1",
		Categories: []SkillCategory{
			{
				Name: "programming_languages",
				Skills: []string{
					"python", "java", "javascript", "c++", "c#", "php", "ruby", "go", "rust",
					"typescript", "kotlin", "swift", "scala", "r", "matlab", "perl",
				},
			},
			{
				Name: "frameworks",
				Skills: []string{
					"react", "angular", "vue", "django", "flask", "spring", "express",
					"laravel", "rails", "fastapi", "node.js", "asp.net",
				},
			},
			{
				Name: "databases",
				Skills: []string{
					"mysql", "postgresql", "mongodb", "sqlite", "redis", "elasticsearch",
					"oracle", "sql server", "cassandra", "firebase",
				},
			},
			{
				Name: "cloud_platforms",
				Skills: []string{
					"aws", "azure", "gcp", "google cloud", "heroku", "digitalocean",
					"docker", "kubernetes", "terraform",
				},
			},
			{
				Name: "tools",
				Skills: []string{
					"git", "jenkins", "jira", "confluence", "postman", "figma",
					"photoshop", "illustrator", "tableau", "power bi",
				},
			},
			{
				Name: "data_science",
				Skills: []string{
					"machine learning", "deep learning", "tensorflow", "pytorch",
					"scikit-learn", "pandas", "numpy", "matplotlib", "seaborn",
					"jupyter", "data analysis", "statistics",
				},
			},
		},
	}
}

// DefaultCertifications 内置认证词表
func DefaultCertifications() []string {
	return []string{
		"aws certified", "azure certified", "google cloud certified",
		"pmp", "cissp", "ceh", "ccna", "ccnp", "ccie",
		"oracle certified", "microsoft certified", "comptia",
		"scrum master", "product owner", "six sigma",
	}
}
