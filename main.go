package main

import "taskmarket.app/taskmarket/cmd"

func main() {
	cmd.Execute()
}
