// Package format turns retrieved evidence chunks into a short Spanish
// answer. Chunks embedding JSON record lists are summarized by their
// dominant name field instead of echoing the raw payload.
package format

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/consulta-ai/consulta/internal/backend"
)

// NoInformation is the answer for questions that produced no evidence.
const NoInformation = "No se encontró información."

// previewLimit caps how many record names are listed before eliding.
const previewLimit = 5

// Prettify renders chunks into the final user-facing answer. A single
// chunk renders as one sentence or summary; several chunks render as a
// numbered list. No chunks renders a fixed no-information message.
func Prettify(chunks []backend.Chunk) string {
	rendered := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		if s := renderChunk(ch.Text); s != "" {
			rendered = append(rendered, s)
		}
	}

	switch len(rendered) {
	case 0:
		return NoInformation
	case 1:
		return rendered[0]
	default:
		var b strings.Builder
		for i, s := range rendered {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "%d. %s", i+1, s)
		}
		return b.String()
	}
}

// renderChunk converts one chunk's text into a sentence. It tries, in
// order: the whole text as strict JSON, a label followed by an embedded
// record list, and finally a light cleanup of the text as-is.
func renderChunk(text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return ""
	}

	var v any
	if err := json.Unmarshal([]byte(t), &v); err == nil {
		switch val := v.(type) {
		case []any:
			if records, ok := asRecords(val); ok {
				return summarizeRecords(records)
			}
		case map[string]any:
			return summarizeRecord(val)
		}
	}

	if idx := strings.Index(t, ": ["); idx >= 0 && strings.HasSuffix(t, "]") {
		prefix := t[:idx]
		if records, ok := parseRecords(t[idx+2:]); ok {
			return prefix + ": " + previewNames(records)
		}
	}

	return ensureSentence(cleanup(t))
}

// parseRecords parses a JSON record list, tolerating the single-quoted
// pseudo-JSON some backends emit.
func parseRecords(literal string) ([]map[string]any, bool) {
	literal = strings.TrimSpace(literal)

	var raw []any
	if err := json.Unmarshal([]byte(literal), &raw); err != nil {
		normalized := normalizeQuotes(literal)
		if err := json.Unmarshal([]byte(normalized), &raw); err != nil {
			return nil, false
		}
	}

	return asRecords(raw)
}

// asRecords narrows a decoded JSON list to a list of flat records. An
// empty list counts as records.
func asRecords(items []any) ([]map[string]any, bool) {
	records := make([]map[string]any, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		records = append(records, m)
	}
	return records, true
}

// normalizeQuotes rewrites single-quoted pseudo-JSON (Python repr style)
// into strict JSON. Best effort: quotes are swapped outside of strings
// and the Python literals are mapped to their JSON forms.
func normalizeQuotes(s string) string {
	var b strings.Builder
	inString := false
	for _, r := range s {
		if r == '\'' {
			b.WriteRune('"')
			inString = !inString
			continue
		}
		b.WriteRune(r)
	}

	out := b.String()
	out = strings.ReplaceAll(out, "True", "true")
	out = strings.ReplaceAll(out, "False", "false")
	out = strings.ReplaceAll(out, "None", "null")
	return out
}

// summarizeRecords renders a full-text record list by its dominant name
// field.
func summarizeRecords(records []map[string]any) string {
	if len(records) == 0 {
		return "Ninguno."
	}

	if key, noun := dominantKey(records); key != "" {
		return fmt.Sprintf("Encontré %d %s: %s", len(records), noun, previewNames(records))
	}

	parts := make([]string, 0, len(records))
	for _, r := range records {
		parts = append(parts, summarizeRecord(r))
	}
	return strings.Join(parts, " ")
}

// previewNames lists the records' names up to previewLimit, eliding the
// rest.
func previewNames(records []map[string]any) string {
	if len(records) == 0 {
		return "Ninguno."
	}

	key, _ := dominantKey(records)

	names := make([]string, 0, len(records))
	for _, r := range records {
		if key != "" {
			if s, ok := r[key].(string); ok {
				names = append(names, s)
				continue
			}
		}
		names = append(names, summarizeRecord(r))
	}

	if len(names) > previewLimit {
		return strings.Join(names[:previewLimit], ", ") + ", …"
	}
	return strings.Join(names, ", ")
}

// dominantKey picks the name-like field shared by every record: titulo
// for books, nombre otherwise.
func dominantKey(records []map[string]any) (key, noun string) {
	for _, candidate := range []struct{ key, noun string }{
		{"titulo", "libro(s)"},
		{"nombre", "resultado(s)"},
	} {
		all := true
		for _, r := range records {
			if _, ok := r[candidate.key]; !ok {
				all = false
				break
			}
		}
		if all && len(records) > 0 {
			return candidate.key, candidate.noun
		}
	}
	return "", ""
}

// summarizeRecord renders a single JSON object as a sentence, with
// dedicated shapes for the stats payloads both backends expose.
func summarizeRecord(m map[string]any) string {
	if a, okA := num(m, "total_autores"); okA {
		if l, okL := num(m, "total_libros"); okL {
			return fmt.Sprintf("La biblioteca tiene %d autores y %d libros.", a, l)
		}
	}

	if c, okC := num(m, "clientes"); okC {
		p, okP := num(m, "productos")
		co, okCo := num(m, "compras")
		if okP && okCo {
			return fmt.Sprintf("Estadísticas: %d clientes, %d productos, %d compras.", c, p, co)
		}
	}

	if titulo, ok := m["titulo"].(string); ok {
		if anio, okA := num(m, "anio_publicacion"); okA {
			return fmt.Sprintf("%s (%d).", titulo, anio)
		}
		return ensureSentence(titulo)
	}

	if nombre, ok := m["nombre"].(string); ok {
		if total, okT := num(m, "total"); okT {
			return fmt.Sprintf("%s (%d).", nombre, total)
		}
		return ensureSentence(nombre)
	}

	if total, ok := num(m, "total"); ok {
		return fmt.Sprintf("Total: %d.", total)
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, m[k]))
	}
	return ensureSentence(strings.Join(parts, ", "))
}

func num(m map[string]any, key string) (int, bool) {
	f, ok := m[key].(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// cleanup strips list punctuation left over from payloads that never
// parsed as JSON.
var cleanupReplacer = strings.NewReplacer("['", "", "']", "", "[", "", "]", "")

func cleanup(s string) string {
	return strings.TrimSpace(cleanupReplacer.Replace(s))
}

// ensureSentence guarantees terminal punctuation.
func ensureSentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	switch s[len(s)-1] {
	case '.', '!', '?':
		return s
	}
	return s + "."
}
