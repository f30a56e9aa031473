package main

// Valid export formats.
var validFormats = []string{"json", "csv", "markdown"}

// Valid gender flag values.
var validGenders = []string{"male", "female", "other"}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
