// Lockbox runs a puzzle box session with simulated hardware and serves the
// monitoring interface for it.
package main

func main() {
	Execute()
}
