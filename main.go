package main

import "github.com/isdelr/taskmanager/internal/cli"

func main() {
	cli.Execute()
}
