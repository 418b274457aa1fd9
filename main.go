package main

import "github.com/zubairAhmed777/yt-downldr/cmd"

func main() {
	cmd.Execute()
}
