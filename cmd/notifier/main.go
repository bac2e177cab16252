package main

import "github.com/alex010501/TasksTracking/services/notifier/cli"

func main() {
	cli.Execute()
}
