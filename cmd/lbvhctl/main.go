// Command lbvhctl drives the builder from the command line: run a
// single build against a dataset, benchmark it against a synthetic
// scene, or list past runs recorded by the scheduler.
package main

import "github.com/lbvhgo/lbvh/cmd/lbvhctl/cmd"

func main() {
	cmd.Execute()
}
