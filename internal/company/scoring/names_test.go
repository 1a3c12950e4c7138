package scoring

import (
	"testing"

	"github.com/gartstein/companyrisk/internal/company/models"
	"github.com/stretchr/testify/assert"
)

func TestResolveName(t *testing.T) {
	tests := []struct {
		name         string
		person       models.Person
		wantForename string
		wantSurname  string
	}{
		{"display name", models.Person{Name: "Smith, John"}, "John", "Smith"},
		{"upper-case surname with middle name", models.Person{Name: "SMITH, John Peter"}, "John", "Smith"},
		{"explicit fields win", models.Person{Name: "SMITH, John", Forename: "Jonathan", Surname: "Smyth"}, "Jonathan", "Smyth"},
		{"forename from display name", models.Person{Name: "SMITH, John", Surname: "Smyth"}, "John", "Smyth"},
		{"no comma", models.Person{Name: "John Smith"}, "", ""},
		{"empty forename part", models.Person{Name: "SMITH,"}, "", "Smith"},
		{"empty", models.Person{}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forename, surname := ResolveName(&tt.person)
			assert.Equal(t, tt.wantForename, forename)
			assert.Equal(t, tt.wantSurname, surname)
		})
	}
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "John Smith", FullName(&models.Person{Name: "SMITH, John"}))
	assert.Equal(t, "", FullName(&models.Person{Name: "SMITH,"}))
}

func TestNewsQuery(t *testing.T) {
	p := &models.Person{Name: "SMITH, John"}

	q, ok := NewsQuery(p, "")
	assert.True(t, ok)
	assert.Equal(t, `"John Smith"`, q)

	q, ok = NewsQuery(p, " TESCO PLC ")
	assert.True(t, ok)
	assert.Equal(t, `"John Smith" "TESCO PLC"`, q)

	_, ok = NewsQuery(&models.Person{Name: "Tesco"}, "")
	assert.False(t, ok)
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Smith", capitalize("SMITH"))
	assert.Equal(t, "Élodie", capitalize("éLODIE"))
	assert.Equal(t, "", capitalize(""))
}
