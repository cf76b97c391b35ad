// Package cli 实现 lyricconv 命令行：convert、merge、batch、inspect、formats、preview
package cli
