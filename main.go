package main

import "fillop/cmd"

func main() {
	cmd.Execute()
}
