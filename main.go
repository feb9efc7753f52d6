package main

import "github.com/khanalasmit/rag-study-assistant/cmd"

func main() {
	cmd.Execute()
}
