//go:build !test

package blocklist

// VerifyPacking enables verification of the chain layout after every mutation.
const VerifyPacking = false
