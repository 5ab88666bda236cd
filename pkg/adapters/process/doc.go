// Package process implements actions as allow-listed external commands.
package process
