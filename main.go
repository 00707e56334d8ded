package main

import "coffee-shop/commands"

func main() {
	commands.Execute()
}
