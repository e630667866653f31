package main

import "clinic-queue.com/clinic-queue/cmd"

func main() {
	cmd.Execute()
}
