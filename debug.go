//go:build depotdebug

package depot

const debugChecks = true
