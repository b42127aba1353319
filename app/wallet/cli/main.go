package main

import "github.com/registrychain/registry/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
