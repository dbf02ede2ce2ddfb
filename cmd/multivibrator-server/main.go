// Command multivibrator-server runs the multivibrator and its gRPC control plane.
package main

import "github.com/oshokin/multivibrator/cmd/multivibrator-server/cmd"

func main() {
	cmd.Execute()
}
