package service

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	fenceStart = regexp.MustCompile("(?is)^\\s*```(?:json)?\\s*")
	fenceEnd   = regexp.MustCompile("(?is)\\s*```\\s*$")

	errEmptyLLMResponse = errors.New("empty llm response")
)

// cleanLLMJSONResponse quita fences ```json ... ``` y BOM, dejando el contenido usable.
func cleanLLMJSONResponse(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.TrimPrefix(s, "\uFEFF")
	s = fenceStart.ReplaceAllString(s, "")
	s = fenceEnd.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// firstJSONObject devuelve el primer objeto {...} balanceado del texto, ignorando
// llaves dentro de strings. Devuelve "" si no hay uno completo.
func firstJSONObject(input string) string {
	start := strings.IndexByte(input, '{')
	if start == -1 {
		return ""
	}

	inString := false
	escape := false
	depth := 0
	for i := start; i < len(input); i++ {
		ch := input[i]
		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
		}
	}
	return ""
}

// decodeLLMJSON decodifica la respuesta estructurada en dest. Acepta respuestas
// envueltas en fences o con texto alrededor del objeto.
func decodeLLMJSON(raw string, dest any) error {
	cleaned := cleanLLMJSONResponse(raw)
	if cleaned == "" {
		return errEmptyLLMResponse
	}
	err := json.Unmarshal([]byte(cleaned), dest)
	if err == nil {
		return nil
	}
	if obj := firstJSONObject(cleaned); obj != "" && obj != cleaned {
		if err2 := json.Unmarshal([]byte(obj), dest); err2 == nil {
			return nil
		}
	}
	return err
}
