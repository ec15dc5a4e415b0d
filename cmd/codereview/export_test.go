package main

// IsTerminal exposes terminal detection to the external test package.
func IsTerminal(stream any) bool { return isTerminal(stream) }
