// Package main is the entry point for the valstats CLI tool, which scrapes
// Valorant agent leaderboards and pivots pick rates by rank.
package main

import "github.com/pable/go-val-stats/cmd"

func main() {
	cmd.Execute()
}
