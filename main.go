package main

import "panson/cmd"

func main() {
	cmd.Execute()
}
