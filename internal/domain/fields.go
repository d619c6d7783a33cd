package domain

import (
	"regexp"
	"sort"
	"strings"
)

var (
	keyWhitespace = regexp.MustCompile(`\s+`)
	// Se permiten letras/dígitos, acentos del castellano y los símbolos que usan
	// los headers de las tablas de bonos ("Var %", "TNA (%)", "Precio $").
	keyDisallowed = regexp.MustCompile(`[^\w\sáéíóúüñ%/.$()\-]`)
)

// NormalizeKey normaliza un nombre de campo para comparar headers entre fuentes:
// minúsculas, espacios colapsados, sin caracteres fuera del set permitido.
func NormalizeKey(s string) string {
	k := strings.ToLower(s)
	k = keyWhitespace.ReplaceAllString(k, " ")
	k = keyDisallowed.ReplaceAllString(k, "")
	return strings.TrimSpace(keyWhitespace.ReplaceAllString(k, " "))
}

// ResolveField busca en row el valor del primer candidato que matchee un header.
//
//	Pasada 1: match exacto del nombre normalizado, en orden de candidatos.
//	Pasada 2: contención (candidato ⊂ header o header ⊂ candidato), en orden de candidatos.
//
// Devuelve "" si ningún candidato matchea: el campo se considera ausente.
// Los headers se recorren del más corto al más largo (y luego alfabéticamente)
// para que la pasada difusa sea determinística.
func ResolveField(row map[string]string, candidates []string) string {
	if len(row) == 0 || len(candidates) == 0 {
		return ""
	}

	type entry struct {
		norm  string
		value string
	}
	keys := make([]entry, 0, len(row))
	for k, v := range row {
		n := NormalizeKey(k)
		if n == "" {
			continue
		}
		keys = append(keys, entry{norm: n, value: v})
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i].norm) != len(keys[j].norm) {
			return len(keys[i].norm) < len(keys[j].norm)
		}
		if keys[i].norm != keys[j].norm {
			return keys[i].norm < keys[j].norm
		}
		return keys[i].value < keys[j].value
	})

	normCandidates := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if n := NormalizeKey(c); n != "" {
			normCandidates = append(normCandidates, n)
		}
	}

	for _, c := range normCandidates {
		for _, k := range keys {
			if k.norm == c {
				return k.value
			}
		}
	}

	for _, c := range normCandidates {
		for _, k := range keys {
			if strings.Contains(k.norm, c) || strings.Contains(c, k.norm) {
				return k.value
			}
		}
	}

	return ""
}
