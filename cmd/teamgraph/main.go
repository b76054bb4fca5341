// Command teamgraph runs the multi-agent teams as an HTTP service or from
// the terminal.
package main

func main() {
	Execute()
}
