package main

import "github.com/taskloop/taskloop/cmd"

func main() {
	cmd.Execute()
}
