package main

import "github.com/fakeyudi/podium/cmd"

func main() {
	cmd.Execute()
}
