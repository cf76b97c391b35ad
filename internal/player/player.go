// Package player 读取 MPRIS 播放器的当前曲目与播放位置
package player

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Clock 预览调度使用的播放时钟
type Clock interface {
	CurrentSong(ctx context.Context) (string, error)
	Position(ctx context.Context) (time.Duration, error)
}

// Playerctl 通过 playerctl 命令实现 Clock
type Playerctl struct {
	// Player 为空时由 playerctl 自行选择
	Player string
}

var _ Clock = (*Playerctl)(nil)

func (p *Playerctl) command(ctx context.Context, args ...string) *exec.Cmd {
	if p.Player != "" {
		args = append([]string{"--player", p.Player}, args...)
	}
	return exec.CommandContext(ctx, "playerctl", args...)
}

// CurrentSong 返回 "artist - title"
func (p *Playerctl) CurrentSong(ctx context.Context) (string, error) {
	output, err := p.command(ctx, "metadata", "--format", `{{artist}} - {{title}}`).Output()
	if err != nil {
		return "", fmt.Errorf("playerctl metadata: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// Position 当前播放位置
func (p *Playerctl) Position(ctx context.Context) (time.Duration, error) {
	out, err := p.command(ctx, "position").Output()
	if err != nil {
		return 0, fmt.Errorf("playerctl position: %w", err)
	}
	return ParsePosition(string(out))
}

// ParsePosition 解析 playerctl 输出的秒数
func ParsePosition(s string) (time.Duration, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q: %w", s, err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("negative position %q", s)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
