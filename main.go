package main

import "github.com/HartreeWorks/slackpull/cmd"

func main() {
	cmd.Execute()
}
