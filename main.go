package main

import "github.com/taskmaster-solutions/ms-go-tasks/cmd"

func main() {
	cmd.Execute()
}
