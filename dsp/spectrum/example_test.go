package spectrum_test

import (
	"fmt"

	"github.com/cwbudde/sdrsweep/dsp/spectrum"
)

func ExampleMagnitude() {
	bins := []complex128{1 + 0i, 0 + 1i, -1 + 0i}
	mag := spectrum.Magnitude(bins)
	fmt.Printf("%.1f %.1f %.1f\n", mag[0], mag[1], mag[2])
	// Output:
	// 1.0 1.0 1.0
}

func ExamplePower() {
	bins := []complex128{3 + 4i, 0 + 2i}
	pow := spectrum.Power(bins)
	fmt.Printf("%.1f %.1f\n", pow[0], pow[1])
	// Output:
	// 25.0 4.0
}

func ExampleMagnitudeBins() {
	bins := spectrum.SliceBins([]complex128{1 + 0i, 0 + 2i})
	mag := spectrum.MagnitudeBins(bins)
	fmt.Printf("%.1f %.1f\n", mag[0], mag[1])
	// Output:
	// 1.0 2.0
}
