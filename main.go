package main

import "github.com/KaramelBytes/tabsum/cmd"

func main() {
	cmd.Execute()
}
