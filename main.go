package main

import "video-labeler/cmd"

func main() {
	cmd.Execute()
}
