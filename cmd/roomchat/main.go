package main

import "github.com/mcoot/roomchat/internal/cli"

func main() {
	cli.Execute()
}
