// Package main provides the entry point for the airdrop CLI.
//
// The tool automates routine work across a list of EVM wallets: claiming
// rewards from a distributor contract, batch-transferring funds, and
// generating fresh wallets.
//
// Usage:
//
//	airdrop claim
//	airdrop run
//	airdrop transfer --to <address>
//	airdrop wallets --count 20
//
// See --help for all available options.
package main

func main() {
	Execute()
}
