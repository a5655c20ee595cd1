package fixtures

import (
	"os"
	"path/filepath"
)

// CreateCountryTable writes the plaintext country fixture table.
func CreateCountryTable(dir string) (string, error) {
	return CountryBuilder("").WriteFile(dir, "country.db")
}

// CreateEncryptedCountryTable writes the country table obfuscated with
// the given password.
func CreateEncryptedCountryTable(dir, password string) (string, error) {
	return CountryBuilder(password).WriteFile(dir, "country_encrypted.db")
}

// CreateTypeGallery writes the 14-type gallery table together with its
// companion blob file.
func CreateTypeGallery(dir string) (string, error) {
	b, mb := TypeGalleryBuilder()
	if _, err := mb.WriteFile(dir, "typgallery.MB"); err != nil {
		return "", err
	}
	return b.WriteFile(dir, "typgallery.DB")
}

// CreateTypeGalleryWithoutBlob writes the gallery table alone, so blob
// cells resolve to null with a missing-blob warning.
func CreateTypeGalleryWithoutBlob(dir string) (string, error) {
	b, _ := TypeGalleryBuilder()
	return b.WriteFile(dir, "typgallery.DB")
}

// CreateEmptyTable writes the seven-field table with zero records.
func CreateEmptyTable(dir string) (string, error) {
	return EmptyBuilder().WriteFile(dir, "empty.db")
}

// CreateCP866Table writes the Cyrillic fixture. declareCodepage selects
// whether the header carries codepage 866 or leaves it unset.
func CreateCP866Table(dir string, declareCodepage bool) (string, error) {
	name := "of_cp866.db"
	if !declareCodepage {
		name = "of.db"
	}
	return CP866Builder(declareCodepage).WriteFile(dir, name)
}

// CreateTruncatedTable writes a file too short to hold a table header.
func CreateTruncatedTable(dir string) (string, error) {
	path := filepath.Join(dir, "truncated.db")
	if err := os.WriteFile(path, CountryBuilder("").Build()[:0x40], 0o644); err != nil {
		return "", err
	}
	return path, nil
}
