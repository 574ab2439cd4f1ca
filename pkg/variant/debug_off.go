//go:build !variantdebug

package variant

const debugChecks = false
