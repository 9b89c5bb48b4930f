package main

import "record-sync/cmd"

func main() {
	cmd.Execute()
}
