// Package app 预览：把转换后的歌词随播放器进度推送给 unix socket 客户端
package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"lyricconv/internal/config"
	"lyricconv/internal/ipc"
	"lyricconv/internal/player"
	"lyricconv/pkg/lyric"
)

var logger = log.With().Str("component", "preview").Logger()

const MessageNoMusic = "No music playing..."

type App struct {
	cfg       *config.Config
	ipcServer *ipc.Server
	clock     player.Clock
}

func New(cfg *config.Config, clock player.Clock) *App {
	return &App{
		cfg:       cfg,
		ipcServer: ipc.NewServer(cfg.App.SocketPath),
		clock:     clock,
	}
}

// Run 启动 socket 服务并播放预览；播放器切歌时停止
func (a *App) Run(ctx context.Context, doc *lyric.Document) error {
	if err := a.ipcServer.Start(); err != nil {
		return err
	}
	defer a.ipcServer.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	song, err := a.clock.CurrentSong(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("No player found")
		a.ipcServer.Broadcast(MessageNoMusic)
	} else {
		logger.Info().Str("song", song).Msg("Previewing against player")
		go a.watchSong(ctx, cancel, song)
	}

	err = NewPreview(doc, a.clock, a.ipcServer).Run(ctx)
	if ctx.Err() != nil && err != nil {
		return nil
	}
	return err
}

// watchSong 曲目变化时取消预览
func (a *App) watchSong(ctx context.Context, cancel context.CancelFunc, initial string) {
	interval := a.cfg.App.CheckInterval
	if interval <= 0 {
		interval = config.DefaultCheckInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		song, err := a.clock.CurrentSong(ctx)
		if err != nil || song != initial {
			logger.Info().Str("song", song).Msg("Song changed, stopping preview")
			a.ipcServer.Broadcast(MessageNoMusic)
			cancel()
			return
		}
	}
}
