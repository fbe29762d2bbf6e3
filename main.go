package main

import "batchsync/cmd"

func main() {
	cmd.Execute()
}
