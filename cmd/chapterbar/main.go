package main

import (
	"os"

	"github.com/ivlev/chapterbar/internal/cli"
)

func main() {
	// Создаем рабочие директории, если их нет
	for _, d := range []string{"input", "output"} {
		os.MkdirAll(d, 0755)
	}

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
