package xrd

// Angles returns n evenly spaced values from first to first+span inclusive
func Angles(first, span float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	angles := make([]float64, n)
	if n == 1 {
		angles[0] = first
		return angles
	}
	step := span / float64(n-1)
	for i := range angles {
		angles[i] = first + step*float64(i)
	}
	// Pin the endpoint so accumulated rounding does not move it
	angles[n-1] = first + span
	return angles
}
