package main

import "github.com/pders01/stackpack/cmd"

func main() {
	cmd.Execute()
}
