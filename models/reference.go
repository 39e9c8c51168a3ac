package models

// Country is global ISO 3166 reference data
type Country struct {
	Code        string `json:"code" db:"code"`
	Name        string `json:"name" db:"name"`
	NumericCode string `json:"numeric_code" db:"numeric_code"`
}

// Currency is global ISO 4217 reference data
type Currency struct {
	Code      string `json:"code" db:"code"`
	Name      string `json:"name" db:"name"`
	Symbol    string `json:"symbol" db:"symbol"`
	MinorUnit int    `json:"minor_unit" db:"minor_unit"`
}

// Language is global ISO 639 reference data
type Language struct {
	Code string `json:"code" db:"code"`
	Name string `json:"name" db:"name"`
}
