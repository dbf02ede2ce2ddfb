// Command multivibrator-ctl controls a running multivibrator-server.
package main

import "github.com/oshokin/multivibrator/cmd/multivibrator-ctl/cmd"

func main() {
	cmd.Execute()
}
