package programs

func sq(x float64) float64 {
	return x * x
}

func hyp2(a, b float64) float64 {
	return sq(a) + sq(b)
}

func clamp(x, lo, hi float64) float64 {
	return ifelse(x < lo, lo, ifelse(x > hi, hi, x))
}
