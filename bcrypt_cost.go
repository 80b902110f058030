//go:build !race

package things

func passwordHashCost() int {
	return 12
}
