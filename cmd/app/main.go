package main

import "evol-ledger-backend/internal/cli"

func main() {
	cli.Execute()
}
