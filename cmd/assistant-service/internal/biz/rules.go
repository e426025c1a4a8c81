package biz

import (
	"strings"

	"velora/cmd/assistant-service/internal/domain"
)

// Rule 关键词规则
type Rule struct {
	Name     string                // 规则名称
	Keywords []string              // 任一关键词命中即匹配
	Match    func(msg string) bool // 自定义匹配，优先于 Keywords
	Replies  []string              // 候选回复，多条时随机选择
	Source   domain.ReplySource    // 回复来源
	Commands []domain.Command      // 命中时附带的界面指令
}

// matches 对小写消息做子串匹配
func (r *Rule) matches(lower string) bool {
	if r.Match != nil {
		return r.Match(lower)
	}
	return containsAny(lower, r.Keywords...)
}

// RuleMatcher 有序规则表，首个命中者胜出
type RuleMatcher struct {
	rules []*Rule
	rnd   domain.RandomSource
}

// NewRuleMatcher 创建规则匹配器
func NewRuleMatcher(rnd domain.RandomSource, rules ...*Rule) *RuleMatcher {
	return &RuleMatcher{rules: rules, rnd: rnd}
}

// Match 返回首个命中规则生成的回复
func (m *RuleMatcher) Match(message string) (*domain.Reply, bool) {
	lower := strings.ToLower(message)
	for _, r := range m.rules {
		if !r.matches(lower) || len(r.Replies) == 0 {
			continue
		}
		return &domain.Reply{
			Text:     m.pick(r.Replies),
			Source:   r.Source,
			Rule:     r.Name,
			Commands: append([]domain.Command(nil), r.Commands...),
		}, true
	}
	return nil, false
}

// Rules 规则列表
func (m *RuleMatcher) Rules() []*Rule {
	return m.rules
}

func (m *RuleMatcher) pick(replies []string) string {
	if len(replies) == 1 || m.rnd == nil {
		return replies[0]
	}
	i := m.rnd.Intn(len(replies))
	if i < 0 || i >= len(replies) {
		i = 0
	}
	return replies[i]
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
