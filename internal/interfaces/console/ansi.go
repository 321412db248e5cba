package console

const (
	ansiReset  = "\033[0m"
	ansiYellow = "\033[33m"
)

func colorize(s, c string) string { return c + s + ansiReset }
