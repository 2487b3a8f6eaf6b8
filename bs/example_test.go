package bs_test

import (
	"fmt"

	"github.com/katalvlaran/volfit/bs"
)

// ExampleCallPrice prices the textbook at-the-money call: spot 100,
// strike 100, 5% rate, one year, 20% volatility.
func ExampleCallPrice() {
	price := bs.CallPrice(100, 100, 0.05, 0, 1, 0.2)
	fmt.Printf("%.2f\n", price)
	// Output: 10.45
}

// ExamplePutPrice prices the matching put; put-call parity ties the two
// values together.
func ExamplePutPrice() {
	price := bs.PutPrice(100, 100, 0.05, 0, 1, 0.2)
	fmt.Printf("%.2f\n", price)
	// Output: 5.57
}
