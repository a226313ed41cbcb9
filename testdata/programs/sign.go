package programs

func sign(n int) int {
	if n < 0 {
		return -1
	} else if n == 0 {
		return 0
	}
	return 1
}

func countdown(n int) int {
	println(0)
	for n > 0 {
		emit(n)
		n--
	}
	return n
}
