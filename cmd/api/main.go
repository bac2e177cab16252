package main

import "github.com/alex010501/TasksTracking/services/api/cli"

func main() {
	cli.Execute()
}
