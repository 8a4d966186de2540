package main

import "github.com/maxgio92/wasmprof/cmd"

func main() {
	cmd.Execute()
}
