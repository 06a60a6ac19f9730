package main

import "github.com/roessland/fitbridge/cmd"

func main() {
	cmd.Execute()
}
