package main

import "lyricconv/internal/cli"

func main() {
	cli.Execute()
}
