package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "días al vto", NormalizeKey("  Días   al\tVto "))
	assert.Equal(t, "var %", NormalizeKey("Var %"))
	assert.Equal(t, "precio $", NormalizeKey("Precio $*"))
	assert.Equal(t, "tna (%)", NormalizeKey("TNA (%)"))
}

func TestResolveField_ExactBeatsFuzzy(t *testing.T) {
	row := map[string]string{
		"Días al Vto": "45",
		"Días":        "10",
	}
	assert.Equal(t, "10", ResolveField(row, []string{"Días", "Días al Vto"}))
}

func TestResolveField_CandidateOrder(t *testing.T) {
	row := map[string]string{"Dias": "7", "Plazo": "30"}
	assert.Equal(t, "7", ResolveField(row, []string{"Días", "Dias", "Plazo"}))
}

func TestResolveField_FuzzyContainment(t *testing.T) {
	row := map[string]string{"Días al Vto.": "12", "Precio": "100"}
	assert.Equal(t, "12", ResolveField(row, []string{"Días"}))

	// header contenido en el candidato
	row = map[string]string{"Var": "-0,2"}
	assert.Equal(t, "-0,2", ResolveField(row, []string{"Var %"}))
}

func TestResolveField_CaseAndSpacing(t *testing.T) {
	row := map[string]string{"  PAGO   FINAL ": "119,06"}
	assert.Equal(t, "119,06", ResolveField(row, []string{"Pago Final"}))
}

func TestResolveField_NoMatch(t *testing.T) {
	row := map[string]string{"Ticker": "S31O5"}
	assert.Equal(t, "", ResolveField(row, []string{"Precio"}))
	assert.Equal(t, "", ResolveField(nil, []string{"Precio"}))
	assert.Equal(t, "", ResolveField(row, nil))
}

func TestResolveField_Deterministic(t *testing.T) {
	row := map[string]string{
		"Precio Cierre":   "1",
		"Precio Apertura": "2",
		"Precio Ant.":     "3",
	}
	first := ResolveField(row, []string{"Precio"})
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, ResolveField(row, []string{"Precio"}))
	}
	// el header más corto que lo contiene
	assert.Equal(t, "3", first)
}
