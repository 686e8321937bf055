package iocli

//go:generate moq -out io_mock.go . IO

// IO ввод-вывод команд клиента
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	Write(p []byte) (n int, err error)
	// Width возвращает ширину терминала или 0, если вывод не в терминал
	Width() int
}
