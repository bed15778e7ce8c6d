package main

import "github.com/robalobadob/memory/apps/go-server/cmd"

func main() {
	cmd.Execute()
}
