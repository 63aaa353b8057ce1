// Command reclaim is the lost-and-found coordination CLI.
package main

import "github.com/civicworks/reclaim/internal/cli"

func main() {
	cli.Execute()
}
