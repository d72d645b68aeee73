package main

import "github.com/oshokin/unipack/cmd/unipack/cmd"

func main() {
	cmd.Execute()
}
