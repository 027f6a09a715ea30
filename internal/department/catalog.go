// Package department holds the static catalog of departments, branches and activity types.
package department

import "strings"

// Department is a ministry group members can belong to.
type Department struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
	Color string   `json:"color"`
}

// DefaultActivityType is used when an event is created without a type.
const DefaultActivityType = "Evento Geral"

var defaults = []Department{
	{ID: "JIESA", Name: "JIESA", Roles: []string{"Responsável", "Secretário", "Tesoureiro"}, Color: "bg-blue-600"},
	{ID: "DCIESA", Name: "DCIESA", Roles: []string{"Supervisor", "Monitor", "Auxiliar"}, Color: "bg-rose-600"},
	{ID: "SHIESA", Name: "SHIESA", Roles: []string{"Responsável", "Secretária"}, Color: "bg-pink-500"},
	{ID: "DEBOS", Name: "DEBOS", Roles: []string{"Responsável", "Secretário"}, Color: "bg-indigo-600"},
	{ID: "EVANGELIZAÇÃO", Name: "Evangelização", Roles: []string{"Coordenador"}, Color: "bg-emerald-600"},
}

var branches = []string{"Centro", "Kalongombe", "Sicar", "Alviário", "Rua 11", "Bereia"}

var activityTypes = []string{
	"Culto Geral",
	"Domingo Especial da Juventude",
	"Domingo de Crianças",
	"Natal de Crianças",
	"Visita nas Áreas diagonais ou filiais",
	"Domingo da Construção/Santa Ceia",
	"Preparação da Ceia",
	"Baptismo",
	"Consagração de Crianças",
	"Domingo dos DEBOS",
	"Domingo da Evangelização",
	"Campanha de Evangelização",
	"Efelevelo",
	"Domingo da AEA",
	"Domingo da Formação de Quadros",
	"Treinamento",
	"Retiro",
	"Acampamento",
	"Classe de Férias",
	"Classe de 3 dias/5 dias",
	"Tarde de louvor, desportiva, recreativa e de talento",
	"Tarde Feminina",
	"Tarde Masculina",
	"Vigília",
	"Conferência",
	"Seminário",
	"Ensaio",
}

// Defaults returns a copy of the seed departments.
func Defaults() []Department {
	out := make([]Department, len(defaults))
	for i, d := range defaults {
		d.Roles = append([]string(nil), d.Roles...)
		out[i] = d
	}
	return out
}

// Branches returns the church branches (filiais).
func Branches() []string {
	return append([]string(nil), branches...)
}

// ActivityTypes returns the known event activity types.
func ActivityTypes() []string {
	return append([]string(nil), activityTypes...)
}

// Find looks a department up by id, case-insensitively.
func Find(id string) (Department, bool) {
	for _, d := range defaults {
		if strings.EqualFold(d.ID, strings.TrimSpace(id)) {
			d.Roles = append([]string(nil), d.Roles...)
			return d, true
		}
	}
	return Department{}, false
}

// RolesFor returns the in-department roles of id, or nil when the department is unknown.
func RolesFor(id string) []string {
	d, ok := Find(id)
	if !ok {
		return nil
	}
	return d.Roles
}

// IsBranch reports whether name is a known branch.
func IsBranch(name string) bool {
	for _, b := range branches {
		if b == name {
			return true
		}
	}
	return false
}

// NormalizeActivityType returns t trimmed, or DefaultActivityType when empty.
func NormalizeActivityType(t string) string {
	if t = strings.TrimSpace(t); t == "" {
		return DefaultActivityType
	}
	return t
}
