package domain

import (
	"encoding/json"
	"time"
)

// ReplySource 回复来源
type ReplySource string

const (
	SourceQuick      ReplySource = "quick"
	SourceCalculator ReplySource = "calculator"
	SourceRemote     ReplySource = "remote"
	SourceLocal      ReplySource = "local"
	SourceDefault    ReplySource = "default"
	SourceFallback   ReplySource = "fallback"
)

// CommandType 界面指令类型
type CommandType string

const (
	CommandScrollTo CommandType = "scroll_to"
)

// Command 回复附带的界面指令，由客户端执行
type Command struct {
	Type   CommandType   `json:"type"`
	Target string        `json:"target"`
	Delay  time.Duration `json:"-"`
}

type commandJSON struct {
	Type    CommandType `json:"type"`
	Target  string      `json:"target"`
	DelayMs int64       `json:"delay_ms"`
}

// MarshalJSON 延迟以毫秒输出
func (c Command) MarshalJSON() ([]byte, error) {
	return json.Marshal(commandJSON{Type: c.Type, Target: c.Target, DelayMs: c.Delay.Milliseconds()})
}

// UnmarshalJSON 解析毫秒延迟
func (c *Command) UnmarshalJSON(b []byte) error {
	var v commandJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	c.Type = v.Type
	c.Target = v.Target
	c.Delay = time.Duration(v.DelayMs) * time.Millisecond
	return nil
}

// Reply 响应引擎的输出
type Reply struct {
	Text     string      `json:"text"`
	Source   ReplySource `json:"source"`
	Rule     string      `json:"rule,omitempty"`
	Commands []Command   `json:"commands,omitempty"`
}
