package main

import "github.com/nikakhov/bitshares-toolkit/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
