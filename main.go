package main

import "github.com/example/revise/cmd"

func main() {
	cmd.Execute()
}
