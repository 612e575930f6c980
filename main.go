package main

import "github.com/iksnae/voiceforge/cmd"

func main() {
	cmd.Execute()
}
