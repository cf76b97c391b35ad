package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"lyricconv/internal/player"
	"lyricconv/pkg/lyric"
)

const (
	DefaultLookahead = 100 * time.Millisecond
	DefaultInterval  = 50 * time.Millisecond
	// DefaultEndGrace 最后一行结束后多久视为歌曲结束
	DefaultEndGrace = 5 * time.Second

	MessageUpcoming = "♪ 即将开始... ♪"
	MessageFinished = "♪ 歌曲结束 ♪"
)

// ErrNoLines 文档没有可显示的行
var ErrNoLines = errors.New("document has no lines")

// Broadcaster 接收要显示的文本
type Broadcaster interface {
	Broadcast(text string)
}

// Preview 按播放时钟广播文档的当前行
type Preview struct {
	lines []lyric.Line
	clock player.Clock
	out   Broadcaster

	Lookahead time.Duration
	Interval  time.Duration
	EndGrace  time.Duration
}

func NewPreview(doc *lyric.Document, clock player.Clock, out Broadcaster) *Preview {
	lines := make([]lyric.Line, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		if strings.TrimSpace(l.Text()) != "" {
			lines = append(lines, l)
		}
	}
	return &Preview{
		lines:     lines,
		clock:     clock,
		out:       out,
		Lookahead: DefaultLookahead,
		Interval:  DefaultInterval,
		EndGrace:  DefaultEndGrace,
	}
}

// DisplayText 主歌词，有翻译时追加第一条翻译
func DisplayText(l *lyric.Line) string {
	text := l.Text()
	if tr := l.Translation(); tr != "" {
		text += " / " + tr
	}
	return text
}

// Run 阻塞直到歌曲结束（返回 nil）或 ctx 取消
func (p *Preview) Run(ctx context.Context) error {
	if len(p.lines) == 0 {
		return ErrNoLines
	}

	logger.Info().Int("lines_count", len(p.lines)).Msg("Lyric scheduler started")
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	lastIndex := -2
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Lyric scheduler cancelled")
			return ctx.Err()
		case <-ticker.C:
		}

		pos, err := p.clock.Position(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("Invalid player time")
			continue
		}

		var finished bool
		lastIndex, finished = p.step(pos, lastIndex)
		if finished {
			logger.Info().Dur("position", pos).Msg("Song finished")
			p.out.Broadcast(MessageFinished)
			return nil
		}
	}
}

// step 处理一次时钟读数，返回新的行号与歌曲是否结束
func (p *Preview) step(pos time.Duration, lastIndex int) (int, bool) {
	lookup := uint64((pos + p.Lookahead).Milliseconds())
	index := lyric.LineIndexAt(p.lines, lookup)

	if index != lastIndex {
		switch {
		case index >= 0:
			l := &p.lines[index]
			logger.Info().
				Int("index", index).
				Dur("player_time", pos).
				Uint64("lyric_time", l.StartMS).
				Str("lyric", l.Text()).
				Msg("Broadcasting lyric")
			p.out.Broadcast(DisplayText(l))
		case lastIndex != -1:
			p.out.Broadcast(MessageUpcoming)
		}
	}

	last := p.lines[len(p.lines)-1]
	end := last.EndMS
	if end < last.StartMS {
		end = last.StartMS
	}
	finished := uint64(pos.Milliseconds()) > end+uint64(p.EndGrace.Milliseconds())
	return index, finished
}
