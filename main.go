package main

import "track-resolver/cmd"

func main() {
	cmd.Execute()
}
