// Command critter runs a tappable terminal creature
package main

import "os"

func main() {
	os.Exit(Execute())
}
