package main

import "kitchen-store/cmd/shopctl/commands"

func main() {
	commands.Execute()
}
