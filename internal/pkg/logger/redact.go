package logger

import "strings"

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactCPF keeps only the last two characters of a CPF.
// "123.456.789-09" → "***09"
func RedactCPF(cpf string) string {
	cpf = strings.TrimSpace(cpf)
	if len(cpf) <= 2 {
		return "***"
	}
	return "***" + cpf[len(cpf)-2:]
}
