package main

import "github.com/Skotchmaster/craft_store/internal/cmd"

func main() {
	cmd.Execute()
}
