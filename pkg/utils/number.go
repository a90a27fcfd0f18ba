package utils

import "strconv"

// ParsePositiveInt converte o valor ou devolve o fallback quando vazio, inválido ou <= 0
func ParsePositiveInt(value string, fallback int) int {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
