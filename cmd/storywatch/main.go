package main

import "storywatch-backend/cmd/storywatch/commands"

func main() {
	commands.Execute()
}
