package domain

import "strings"

// columnAliases maps each canonical product field to the header spellings seen in
// the wild, most preferred first
var columnAliases = map[Field][]string{
	FieldName:         {"name", "nom", "Nom complet", "Nom", "product_name"},
	FieldSubstance:    {"substance", "dci", "DCI", "scientific_name"},
	FieldCode:         {"code", "atc", "Code ATC", "Code_ATC", "code_atc"},
	FieldCategory:     {"category", "classification", "Type de Classification", "type"},
	FieldForm:         {"form", "forme", "Forme", "dosage_form"},
	FieldManufacturer: {"manufacturer", "laboratoire", "Laboratoire Fabricant", "laboratory"},
	FieldIndication:   {"indication", "INDICATION", "Indication"},
	FieldNomenclature: {"nomenclature", "Nomenclature"},
	FieldPrice:        {"price", "prix", "Prix"},
}

// ObservationAliases are the spellings of the latest-observation column
var ObservationAliases = []string{"observation"}

// ResolveColumns maps canonical fields to the actual headers present.
// Exact matches win over case-insensitive ones. Unresolved fields are absent from the result.
func ResolveColumns(headers []string) map[Field]string {
	resolved := make(map[Field]string, len(columnAliases))
	for field, aliases := range columnAliases {
		if h, ok := MatchHeader(headers, aliases); ok {
			resolved[field] = h
		}
	}
	return resolved
}

// MatchHeader returns the first header equal to an alias, trying exact spellings
// before case-insensitive ones
func MatchHeader(headers, aliases []string) (string, bool) {
	for _, alias := range aliases {
		for _, h := range headers {
			if strings.TrimSpace(h) == alias {
				return h, true
			}
		}
	}
	for _, alias := range aliases {
		for _, h := range headers {
			if strings.EqualFold(strings.TrimSpace(h), alias) {
				return h, true
			}
		}
	}
	return "", false
}
