package main

import "github.com/froyo-dl/froyo/cmd"

func main() {
	cmd.Execute()
}
